package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// REPORTS
// ============================================================================

// ComputeReport folds the agent's entries in [from, to] into a report. Any
// valid range is accepted.
func (s *AttendanceService) ComputeReport(ctx context.Context, agentID string, from, to time.Time) (*domain.MonthlyReport, error) {
	from, to = domain.CivilDate(from), domain.CivilDate(to)
	if from.After(to) {
		return nil, errors.InvalidRange("start must not be after end")
	}

	agent, err := s.getAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries.FindEntries(ctx, domain.EntryFilter{
		AgentIDs: []string{agentID},
		From:     from,
		To:       to.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, storeErr(err)
	}

	report := domain.FoldReport(agentID, from, to, entries, s.rules.StandardDayHours)
	report.AgentName = agent.Name
	return &report, nil
}

// ComputeTeamReport returns one report per directory agent, including agents
// without entries, in directory order.
func (s *AttendanceService) ComputeTeamReport(ctx context.Context, from, to time.Time, filter domain.AgentFilter) ([]domain.MonthlyReport, error) {
	from, to = domain.CivilDate(from), domain.CivilDate(to)
	if from.After(to) {
		return nil, errors.InvalidRange("start must not be after end")
	}

	var (
		agents  []domain.Agent
		entries []domain.Entry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		agents, err = s.directory.ListAgents(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.entries.FindEntries(gctx, domain.EntryFilter{From: from, To: to.AddDate(0, 0, 1)})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeErr(err)
	}

	byAgent := make(map[string][]domain.Entry, len(agents))
	for _, e := range entries {
		byAgent[e.AgentID] = append(byAgent[e.AgentID], e)
	}

	standardDay := decimal.NewFromInt(int64(s.rules.StandardDayHours))
	reports := make([]domain.MonthlyReport, 0, len(agents))
	for _, agent := range agents {
		report := domain.NewReport(agent.ID, from, to)
		report.AgentName = agent.Name
		for _, e := range byAgent[agent.ID] {
			report.Add(e, standardDay)
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// MonthToDate is the default report range: the first of the current month
// through today.
func (s *AttendanceService) MonthToDate() (from, to time.Time) {
	today := s.Today()
	first, _ := domain.MonthBounds(today)
	return first, today
}

// CompletedMonth returns the bounds of month, which must end before the
// current month starts. This is the month picker's rule; ComputeReport itself
// takes any range.
func (s *AttendanceService) CompletedMonth(month time.Time) (from, to time.Time, err error) {
	first, last := domain.MonthBounds(month)
	current, _ := domain.MonthBounds(s.Today())
	if !first.Before(current) {
		return time.Time{}, time.Time{}, errors.InvalidRange("only completed months before " + current.Format(domain.MonthLayout) + " can be selected")
	}
	return first, last, nil
}

// ReportRange resolves the report selectors: month (YYYY-MM, a completed
// month), or start and end (YYYY-MM-DD) together, or nothing for
// month-to-date.
func (s *AttendanceService) ReportRange(month, start, end string) (from, to time.Time, err error) {
	if month != "" {
		m, err := time.Parse(domain.MonthLayout, month)
		if err != nil {
			return time.Time{}, time.Time{}, errors.BadRequest("invalid month " + month + ", expected YYYY-MM")
		}
		return s.CompletedMonth(m)
	}

	if start == "" && end == "" {
		from, to = s.MonthToDate()
		return from, to, nil
	}
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, errors.InvalidRange("start and end must be given together")
	}

	if from, err = domain.ParseDate(start); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to, err = domain.ParseDate(end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
