package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeReport(t *testing.T) {
	f := newFixture(t)
	f.store.seed("A", "2024-03-04", domain.StatusPresentOffice, 0)
	f.store.seed("A", "2024-03-05", domain.StatusPresentOffice, 0)
	f.store.seed("A", "2024-03-06", domain.StatusPresentOffice, 0)
	f.store.seed("A", "2024-03-07", domain.StatusPresentHome, 2)
	f.store.seed("A", "2024-04-01", domain.StatusPresentOffice, 4)
	f.store.seed("B", "2024-03-04", domain.StatusPresentOffice, 1)

	report, err := f.svc.ComputeReport(context.Background(), "A", day(t, "2024-03-01"), day(t, "2024-03-31"))
	require.NoError(t, err)

	assert.Equal(t, "Amina", report.AgentName)
	assert.Equal(t, 3, report.PresentInOffice)
	assert.Equal(t, 1, report.WorkingFromHome)
	assert.True(t, report.WorkingHours.Equal(decimal.NewFromInt(34)), report.WorkingHours.String())
	assert.True(t, report.ExtraHours.Equal(decimal.NewFromInt(2)))
}

func TestComputeReport_LastDayIncluded(t *testing.T) {
	f := newFixture(t)
	f.store.seed("A", "2024-03-31", domain.StatusWorkHoliday, 0)

	report, err := f.svc.ComputeReport(context.Background(), "A", day(t, "2024-03-01"), day(t, "2024-03-31"))

	require.NoError(t, err)
	assert.Equal(t, 1, report.WorkOnHoliday)
	assert.Equal(t, 1, report.SundayWork)
}

func TestComputeReport_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ComputeReport(context.Background(), "A", day(t, "2024-03-31"), day(t, "2024-03-01"))
	assert.ErrorIs(t, err, errors.ErrInvalidRange)

	_, err = f.svc.ComputeReport(context.Background(), "Z", day(t, "2024-03-01"), day(t, "2024-03-31"))
	assert.ErrorIs(t, err, errors.ErrUnknownAgent)

	f.store.down = true
	_, err = f.svc.ComputeReport(context.Background(), "A", day(t, "2024-03-01"), day(t, "2024-03-31"))
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)
}

func TestComputeTeamReport_IncludesAgentsWithoutEntries(t *testing.T) {
	f := newFixture(t)
	f.store.seed("A", "2024-03-04", domain.StatusPresentOffice, 1)
	f.store.seed("C", "2024-03-04", domain.StatusPresentHome, 0)
	f.store.seed("C", "2024-03-05", domain.StatusSickLeave, 0)

	reports, err := f.svc.ComputeTeamReport(context.Background(), day(t, "2024-03-01"), day(t, "2024-03-31"), domain.AgentFilter{})
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, "A", reports[0].AgentID)
	assert.True(t, reports[0].WorkingHours.Equal(decimal.NewFromInt(9)))
	assert.Equal(t, "B", reports[1].AgentID)
	assert.Zero(t, reports[1].Entries)
	assert.True(t, reports[1].WorkingHours.IsZero())
	assert.Equal(t, "C", reports[2].AgentID)
	assert.Equal(t, 1, reports[2].SickLeave)

	// each team row matches the single-agent report
	single, err := f.svc.ComputeReport(context.Background(), "C", day(t, "2024-03-01"), day(t, "2024-03-31"))
	require.NoError(t, err)
	assert.Equal(t, *single, reports[2])
}

func TestComputeTeamReport_ClientFilter(t *testing.T) {
	f := newFixture(t)

	reports, err := f.svc.ComputeTeamReport(context.Background(), day(t, "2024-03-01"), day(t, "2024-03-31"), domain.AgentFilter{ClientID: &clientA})

	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "C", reports[1].AgentID)
}

func TestMonthToDate(t *testing.T) {
	f := newFixture(t)

	from, to := f.svc.MonthToDate()

	assert.Equal(t, "2024-03-01", domain.FormatDate(from))
	assert.Equal(t, "2024-03-06", domain.FormatDate(to))
}

func TestCompletedMonth(t *testing.T) {
	f := newFixture(t)

	from, to, err := f.svc.CompletedMonth(day(t, "2024-02-14"))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", domain.FormatDate(from))
	assert.Equal(t, "2024-02-29", domain.FormatDate(to))

	_, _, err = f.svc.CompletedMonth(day(t, "2024-03-01"))
	assert.ErrorIs(t, err, errors.ErrInvalidRange)

	_, _, err = f.svc.CompletedMonth(day(t, "2024-05-01"))
	assert.ErrorIs(t, err, errors.ErrInvalidRange)
}

func TestReportRange(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name             string
		month, from, to  string
		wantFrom, wantTo string
		wantErr          error
	}{
		{name: "completed month", month: "2024-01", wantFrom: "2024-01-01", wantTo: "2024-01-31"},
		{name: "explicit range", from: "2024-02-10", to: "2024-03-02", wantFrom: "2024-02-10", wantTo: "2024-03-02"},
		{name: "month to date", wantFrom: "2024-03-01", wantTo: "2024-03-06"},
		{name: "current month", month: "2024-03", wantErr: errors.ErrInvalidRange},
		{name: "start only", from: "2024-02-10", wantErr: errors.ErrInvalidRange},
		{name: "bad month", month: "jan", wantErr: errors.ErrBadRequest},
		{name: "bad end", from: "2024-02-10", to: "10-02-2024", wantErr: errors.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := f.svc.ReportRange(tt.month, tt.from, tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, domain.FormatDate(from))
			assert.Equal(t, tt.wantTo, domain.FormatDate(to))
		})
	}
}
