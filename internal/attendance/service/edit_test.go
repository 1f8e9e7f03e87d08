package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/service"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetStatus_ThenReadWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.svc.LoadWeek(ctx, day(t, "2024-03-04"), domain.AgentFilter{})
	require.NoError(t, err)

	entry, err := f.svc.SetStatus(ctx, service.SetStatusInput{
		AgentID:   "A",
		Date:      day(t, "2024-03-07"),
		Status:    domain.StatusSickLeave,
		UpdatedBy: "manager-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSickLeave, entry.Status)
	require.NotNil(t, entry.ClientID)
	assert.Equal(t, clientA, *entry.ClientID)
	require.NotNil(t, entry.UpdatedBy)
	assert.Equal(t, "manager-1", *entry.UpdatedBy)

	after, err := f.svc.LoadWeek(ctx, day(t, "2024-03-04"), domain.AgentFilter{})
	require.NoError(t, err)

	b, a := before.ByAgent(), after.ByAgent()
	for agentID := range b {
		for i := range b[agentID] {
			if agentID == "A" && i == 3 {
				assert.Equal(t, domain.StatusSickLeave, a[agentID][i].Status)
				continue
			}
			assert.Equal(t, b[agentID][i], a[agentID][i], "%s day %d changed", agentID, i)
		}
	}

	require.Len(t, f.publisher.entries, 1)
}

func TestSetStatus_WeeklyExtraHoursCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.seed("A", "2024-03-04", domain.StatusPresentOffice, 4)
	f.store.seed("A", "2024-03-05", domain.StatusPresentOffice, 2)
	// other agents and other weeks do not count
	f.store.seed("B", "2024-03-05", domain.StatusPresentOffice, 4)
	f.store.seed("A", "2024-02-29", domain.StatusPresentOffice, 4)

	_, err := f.svc.SetStatus(ctx, service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-03-06"), Status: domain.StatusPresentOffice, ExtraHours: hours(3),
	})
	require.ErrorIs(t, err, errors.ErrExtraHoursExceeded)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "weekly", appErr.Details["scope"])
	assert.Equal(t, "6", appErr.Details["current_total"])
	assert.Equal(t, "8", appErr.Details["limit"])
	_, written := f.store.get("A", "2024-03-06")
	assert.False(t, written)

	_, err = f.svc.SetStatus(ctx, service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-03-06"), Status: domain.StatusPresentOffice, ExtraHours: hours(2),
	})
	require.NoError(t, err)

	week := domain.ResolveWeek(day(t, "2024-03-06"))
	total, err := f.store.SumExtraHours(ctx, "A", week.Start, week.End(), time.Time{})
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(8)), total.String())
}

func TestSetStatus_ReplacingSameDayIsNotDoubleCounted(t *testing.T) {
	f := newFixture(t)
	f.store.seed("A", "2024-03-04", domain.StatusPresentOffice, 4)
	f.store.seed("A", "2024-03-05", domain.StatusPresentOffice, 4)

	entry, err := f.svc.SetStatus(context.Background(), service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-03-05"), Status: domain.StatusPresentHome, ExtraHours: hours(3),
	})

	require.NoError(t, err)
	assert.True(t, entry.ExtraHours.Equal(decimal.NewFromInt(3)))
}

func TestSetStatus_DailyExtraHoursCap(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SetStatus(context.Background(), service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-03-06"), Status: domain.StatusPresentOffice, ExtraHours: hours(5),
	})

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "EXTRA_HOURS_EXCEEDED", appErr.Code)
	assert.Equal(t, "daily", appErr.Details["scope"])
	assert.Equal(t, "4", appErr.Details["limit"])
	assert.Zero(t, f.store.writes)
}

func TestSetStatus_FractionalExtraHours(t *testing.T) {
	f := newFixture(t)
	f.store.seed("A", "2024-03-04", domain.StatusPresentOffice, 4)
	f.store.seed("A", "2024-03-05", domain.StatusPresentOffice, 3)
	half := decimal.RequireFromString("0.5")
	more := decimal.RequireFromString("1.5")

	_, err := f.svc.SetStatus(context.Background(), service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-03-06"), Status: domain.StatusPresentOffice, ExtraHours: &more,
	})
	assert.ErrorIs(t, err, errors.ErrExtraHoursExceeded)

	_, err = f.svc.SetStatus(context.Background(), service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-03-06"), Status: domain.StatusPresentOffice, ExtraHours: &half,
	})
	assert.NoError(t, err)
}

func TestSetStatus_ExtraHoursOutsideCurrentWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.seed("A", "2024-02-28", domain.StatusPresentOffice, 2)

	_, err := f.svc.SetStatus(ctx, service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-02-28"), Status: domain.StatusPresentOffice, ExtraHours: hours(1),
	})
	assert.ErrorIs(t, err, errors.ErrExtraHoursLocked)

	// without extra hours the status edit goes through and keeps the stored value
	entry, err := f.svc.SetStatus(ctx, service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-02-28"), Status: domain.StatusPresentHome,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPresentHome, entry.Status)
	assert.True(t, entry.ExtraHours.Equal(decimal.NewFromInt(2)))
}

func TestSetStatus_UnchangedExtraHoursInLockedWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.seed("A", "2024-02-05", domain.StatusPresentOffice, 2)

	// zero reads as "no extra hours change" and keeps the stored value
	entry, err := f.svc.SetStatus(ctx, service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-02-05"), Status: domain.StatusPresentHome, ExtraHours: hours(0),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPresentHome, entry.Status)
	assert.True(t, entry.ExtraHours.Equal(decimal.NewFromInt(2)))

	// resending the stored value is not a change either
	entry, err = f.svc.SetStatus(ctx, service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-02-05"), Status: domain.StatusPresentOffice, ExtraHours: hours(2),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPresentOffice, entry.Status)

	// a day never recorded takes zero
	entry, err = f.svc.SetStatus(ctx, service.SetStatusInput{
		AgentID: "B", Date: day(t, "2024-02-06"), Status: domain.StatusPresentOffice, ExtraHours: hours(0),
	})
	require.NoError(t, err)
	assert.True(t, entry.ExtraHours.IsZero())

	_, err = f.svc.SetStatus(ctx, service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-02-05"), Status: domain.StatusPresentOffice, ExtraHours: hours(3),
	})
	assert.ErrorIs(t, err, errors.ErrExtraHoursLocked)
}

func TestSetStatus_ExtraHoursPrecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fine := decimal.RequireFromString("1.25")
	entry, err := f.svc.SetStatus(ctx, service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-03-06"), Status: domain.StatusPresentOffice, ExtraHours: &fine,
	})
	require.NoError(t, err)
	assert.True(t, entry.ExtraHours.Equal(fine))

	tooFine := decimal.RequireFromString("1.255")
	_, err = f.svc.SetStatus(ctx, service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-03-07"), Status: domain.StatusPresentOffice, ExtraHours: &tooFine,
	})
	assert.ErrorIs(t, err, errors.ErrValidation)
	_, ok := f.store.get("A", "2024-03-07")
	assert.False(t, ok)
}

func TestSetStatus_NonWorkingStatusClearsExtraHours(t *testing.T) {
	f := newFixture(t)
	f.store.seed("A", "2024-03-05", domain.StatusPresentOffice, 3)

	entry, err := f.svc.SetStatus(context.Background(), service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-03-05"), Status: domain.StatusAbsent,
	})
	require.NoError(t, err)
	assert.True(t, entry.ExtraHours.IsZero())

	_, err = f.svc.SetStatus(context.Background(), service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-03-05"), Status: domain.StatusVacation, ExtraHours: hours(1),
	})
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestSetStatus_RejectsBeforeWriting(t *testing.T) {
	tests := []struct {
		name string
		in   service.SetStatusInput
		want error
	}{
		{
			name: "unknown status",
			in:   service.SetStatusInput{AgentID: "A", Date: now, Status: "present-of"},
			want: errors.ErrUnknownStatus,
		},
		{
			name: "unknown agent",
			in:   service.SetStatusInput{AgentID: "Z", Date: now, Status: domain.StatusAbsent},
			want: errors.ErrUnknownAgent,
		},
		{
			name: "negative extra hours",
			in:   service.SetStatusInput{AgentID: "A", Date: now, Status: domain.StatusPresentOffice, ExtraHours: hours(-1)},
			want: errors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.SetStatus(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, f.store.writes)
			assert.Empty(t, f.publisher.entries)
		})
	}
}

func TestSetStatus_Unset(t *testing.T) {
	f := newFixture(t)
	f.store.seed("A", "2024-03-05", domain.StatusAbsent, 0)

	entry, err := f.svc.SetStatus(context.Background(), service.SetStatusInput{
		AgentID: "A", Date: day(t, "2024-03-05"), Status: domain.StatusUnset,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnset, entry.Status)
}

func TestSetStatus_PersistsWhenCallerCancels(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	upsertCtx := &ctxCapturingStore{memStore: f.store}
	svc := service.NewAttendanceService(upsertCtx, f.directory, f.publisher, service.DefaultRules(), nopLogger(),
		service.WithClock(func() time.Time { return now }))

	cancel()
	_, err := svc.SetStatus(ctx, service.SetStatusInput{AgentID: "B", Date: day(t, "2024-03-05"), Status: domain.StatusAbsent})

	require.NoError(t, err)
	assert.NoError(t, upsertCtx.seen.Err())
}

func TestApplyGroup_WeekendsForcedToDayOff(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.ApplyGroup(context.Background(), service.GroupInput{
		AgentIDs:  []string{"A", "B"},
		From:      day(t, "2024-03-04"),
		To:        day(t, "2024-03-10"),
		Status:    domain.StatusPresentOffice,
		UpdatedBy: "manager-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 14, result.Written)
	assert.Equal(t, 14, result.Total)
	assert.Empty(t, result.Failed)

	for _, agent := range []string{"A", "B"} {
		for _, d := range []string{"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08"} {
			e, ok := f.store.get(agent, d)
			require.True(t, ok)
			assert.Equal(t, domain.StatusPresentOffice, e.Status, "%s %s", agent, d)
		}
		for _, d := range []string{"2024-03-09", "2024-03-10"} {
			e, ok := f.store.get(agent, d)
			require.True(t, ok)
			assert.Equal(t, domain.StatusDayOff, e.Status, "%s %s", agent, d)
		}
	}

	require.Len(t, f.publisher.groups, 1)
	assert.Equal(t, 14, f.publisher.groups[0].Written)
}

func TestApplyGroup_KeepsExtraHoursOnWorkedDays(t *testing.T) {
	f := newFixture(t)
	f.store.seed("A", "2024-03-05", domain.StatusPresentOffice, 2)
	f.store.seed("A", "2024-03-06", domain.StatusPresentOffice, 1)

	_, err := f.svc.ApplyGroup(context.Background(), service.GroupInput{
		AgentIDs: []string{"A"}, From: day(t, "2024-03-05"), To: day(t, "2024-03-05"), Status: domain.StatusPresentHome,
	})
	require.NoError(t, err)
	_, err = f.svc.ApplyGroup(context.Background(), service.GroupInput{
		AgentIDs: []string{"A"}, From: day(t, "2024-03-06"), To: day(t, "2024-03-06"), Status: domain.StatusVacation,
	})
	require.NoError(t, err)

	kept, _ := f.store.get("A", "2024-03-05")
	assert.True(t, kept.ExtraHours.Equal(decimal.NewFromInt(2)))
	cleared, _ := f.store.get("A", "2024-03-06")
	assert.True(t, cleared.ExtraHours.IsZero())
}

func TestApplyGroup_InvalidRange(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ApplyGroup(context.Background(), service.GroupInput{
		AgentIDs: []string{"A", "B"},
		From:     day(t, "2024-03-05"),
		To:       day(t, "2024-03-04"),
		Status:   domain.StatusVacation,
	})

	assert.ErrorIs(t, err, errors.ErrInvalidRange)
	assert.Zero(t, f.store.writes)
	assert.Empty(t, f.publisher.groups)
}

func TestApplyGroup_QuarterLongVacation(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.ApplyGroup(context.Background(), service.GroupInput{
		AgentIDs: []string{"A"},
		From:     day(t, "2024-01-01"),
		To:       day(t, "2024-03-31"),
		Status:   domain.StatusVacation,
	})

	require.NoError(t, err)
	assert.Equal(t, 91, res.Total)
	assert.Equal(t, 91, res.Written)
	assert.Equal(t, 91, f.store.writes)

	monday, ok := f.store.get("A", "2024-02-12")
	require.True(t, ok)
	assert.Equal(t, domain.StatusVacation, monday.Status)
	sunday, ok := f.store.get("A", "2024-03-31")
	require.True(t, ok)
	assert.Equal(t, domain.StatusDayOff, sunday.Status)
}

func TestApplyGroup_OperatorCap(t *testing.T) {
	f := newFixture(t)
	rules := service.DefaultRules()
	rules.MaxGroupDays = 31
	svc := service.NewAttendanceService(f.store, f.directory, f.publisher, rules, logger.Nop(),
		service.WithClock(func() time.Time { return now }))

	_, err := svc.ApplyGroup(context.Background(), service.GroupInput{
		AgentIDs: []string{"A"},
		From:     day(t, "2024-01-01"),
		To:       day(t, "2024-03-31"),
		Status:   domain.StatusVacation,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrGroupRangeTooLong)
	assert.NotErrorIs(t, err, errors.ErrInvalidRange)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "GROUP_RANGE_TOO_LONG", appErr.Code)
	assert.Equal(t, "91", appErr.Details["days"])
	assert.Zero(t, f.store.writes)

	res, err := svc.ApplyGroup(context.Background(), service.GroupInput{
		AgentIDs: []string{"A"},
		From:     day(t, "2024-01-01"),
		To:       day(t, "2024-01-31"),
		Status:   domain.StatusVacation,
	})
	require.NoError(t, err)
	assert.Equal(t, 31, res.Written)
}

func TestApplyGroup_ValidatesAgentsBeforeWriting(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ApplyGroup(context.Background(), service.GroupInput{
		AgentIDs: []string{"A", "nobody"},
		From:     day(t, "2024-03-04"),
		To:       day(t, "2024-03-05"),
		Status:   domain.StatusVacation,
	})
	assert.ErrorIs(t, err, errors.ErrUnknownAgent)

	_, err = f.svc.ApplyGroup(context.Background(), service.GroupInput{
		AgentIDs: nil,
		From:     day(t, "2024-03-04"),
		To:       day(t, "2024-03-05"),
		Status:   domain.StatusVacation,
	})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = f.svc.ApplyGroup(context.Background(), service.GroupInput{
		AgentIDs: []string{"A"},
		From:     day(t, "2024-03-04"),
		To:       day(t, "2024-03-05"),
		Status:   "weekend",
	})
	assert.ErrorIs(t, err, errors.ErrUnknownStatus)

	assert.Zero(t, f.store.writes)
}

func TestApplyGroup_DuplicateAgentsWrittenOnce(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.ApplyGroup(context.Background(), service.GroupInput{
		AgentIDs: []string{"A", "A", "B"},
		From:     day(t, "2024-03-04"),
		To:       day(t, "2024-03-04"),
		Status:   domain.StatusHoliday,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, result.AgentIDs)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, f.store.writes)
}

func TestApplyGroup_PartialFailureTally(t *testing.T) {
	f := newFixture(t)
	wednesday := day(t, "2024-03-06")
	f.store.failOn = func(agentID string, date time.Time) bool {
		return agentID == "B" && date.Equal(wednesday)
	}

	result, err := f.svc.ApplyGroup(context.Background(), service.GroupInput{
		AgentIDs: []string{"A", "B"},
		From:     day(t, "2024-03-04"),
		To:       day(t, "2024-03-10"),
		Status:   domain.StatusVacation,
	})
	require.NoError(t, err)

	assert.True(t, result.Partial())
	assert.Equal(t, 13, result.Written)
	assert.Equal(t, 14, result.Total)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, domain.GroupFailure{
		AgentID: "B",
		Date:    "2024-03-06",
		Code:    "STORE_UNAVAILABLE",
		Message: "attendance store unavailable",
	}, result.Failed[0])

	_, ok := f.store.get("B", "2024-03-07")
	assert.True(t, ok, "batch continues after a failure")
}
