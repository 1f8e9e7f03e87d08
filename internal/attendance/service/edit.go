package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
)

// extraHoursPlaces matches the NUMERIC(5,2) column of the Postgres store
const extraHoursPlaces = 2

// SetStatusInput is a single cell edit
type SetStatusInput struct {
	AgentID string
	Date    time.Time
	Status  domain.Status
	// ExtraHours nil leaves the stored value untouched
	ExtraHours *decimal.Decimal
	UpdatedBy  string
}

// GroupInput applies one status to several agents over [From, To]
type GroupInput struct {
	AgentIDs  []string
	From      time.Time
	To        time.Time
	Status    domain.Status
	UpdatedBy string
}

// ============================================================================
// SINGLE CELL
// ============================================================================

// SetStatus validates and upserts one (agent, date) entry. Every check runs
// before the write.
func (s *AttendanceService) SetStatus(ctx context.Context, in SetStatusInput) (*domain.Entry, error) {
	if !in.Status.Valid() {
		return nil, errors.UnknownStatus(string(in.Status))
	}
	date := domain.CivilDate(in.Date)

	agent, err := s.getAgent(ctx, in.AgentID)
	if err != nil {
		return nil, err
	}

	extra := in.ExtraHours
	if extra != nil && in.Status.IsWorking() && !s.CurrentWeek().Contains(date) {
		unchanged, err := s.extraHoursUnchanged(ctx, in.AgentID, date, *extra)
		if err != nil {
			return nil, err
		}
		if unchanged {
			// a locked week keeps its stored extra hours
			extra = nil
		}
	}
	if extra != nil {
		if err := s.checkExtraHours(ctx, in.AgentID, date, in.Status, *extra); err != nil {
			return nil, err
		}
	} else if !in.Status.IsWorking() {
		// non-working days never keep extra hours from an earlier status
		zero := decimal.Zero
		extra = &zero
	}

	upsert := domain.EntryUpsert{
		AgentID:    in.AgentID,
		Date:       date,
		Status:     in.Status,
		ExtraHours: extra,
		ClientID:   agent.ClientID,
		UpdatedBy:  optional(in.UpdatedBy),
	}

	// The write outlives the caller: an abandoned request still persists.
	entry, err := s.entries.UpsertEntry(context.WithoutCancel(ctx), upsert)
	if err != nil {
		s.logger.Error().Err(err).
			Str("agent_id", in.AgentID).
			Str("date", domain.FormatDate(date)).
			Msg("failed to upsert attendance entry")
		return nil, storeErr(err)
	}

	s.publisher.PublishEntryUpdated(ctx, entry)

	s.logger.Info().
		Str("agent_id", entry.AgentID).
		Str("date", domain.FormatDate(entry.Date)).
		Str("status", entry.Status.String()).
		Str("extra_hours", entry.ExtraHours.String()).
		Msg("attendance entry updated")

	return entry, nil
}

func (s *AttendanceService) checkExtraHours(ctx context.Context, agentID string, date time.Time, status domain.Status, extra decimal.Decimal) error {
	if extra.IsNegative() {
		return errors.Validation(map[string]string{"extra_hours": "must not be negative"})
	}
	if !extra.Equal(extra.Round(extraHoursPlaces)) {
		return errors.Validation(map[string]string{"extra_hours": "at most 2 decimal places"})
	}
	if !status.IsWorking() {
		if extra.IsZero() {
			return nil
		}
		return errors.Validation(map[string]string{"extra_hours": "only worked days can carry extra hours"})
	}

	current := s.CurrentWeek()
	if !current.Contains(date) {
		return errors.ExtraHoursLocked(domain.FormatDate(date))
	}

	// The edited day's stored value is being replaced, so it is left out.
	week := domain.ResolveWeek(date)
	total, err := s.entries.SumExtraHours(ctx, agentID, week.Start, week.End(), date)
	if err != nil {
		return storeErr(err)
	}

	if extra.GreaterThan(s.rules.MaxDailyExtraHours) {
		return errors.ExtraHoursExceeded("daily", total.String(), extra.String(), s.rules.MaxDailyExtraHours.String())
	}
	if total.Add(extra).GreaterThan(s.rules.MaxWeeklyExtraHours) {
		return errors.ExtraHoursExceeded("weekly", total.String(), extra.String(), s.rules.MaxWeeklyExtraHours.String())
	}
	return nil
}

// extraHoursUnchanged reports whether extra is zero or already the stored
// value, in which case the edit does not touch extra hours at all.
func (s *AttendanceService) extraHoursUnchanged(ctx context.Context, agentID string, date time.Time, extra decimal.Decimal) (bool, error) {
	if extra.IsZero() {
		return true, nil
	}
	stored, err := s.entries.FindEntries(ctx, domain.EntryFilter{
		AgentIDs: []string{agentID},
		From:     date,
		To:       date.AddDate(0, 0, 1),
	})
	if err != nil {
		return false, storeErr(err)
	}
	for _, e := range stored {
		if e.Date.Equal(date) && e.ExtraHours.Equal(extra) {
			return true, nil
		}
	}
	return false, nil
}

// ============================================================================
// GROUP
// ============================================================================

// ApplyGroup writes one entry per (agent, day) of the range, forcing
// weekends to day-off. Validation failures abort before any write. Store
// failures mid-batch do not stop the batch; they are listed in the result.
func (s *AttendanceService) ApplyGroup(ctx context.Context, in GroupInput) (*domain.GroupResult, error) {
	if !in.Status.Valid() {
		return nil, errors.UnknownStatus(string(in.Status))
	}
	agentIDs := dedupe(in.AgentIDs)
	if len(agentIDs) == 0 {
		return nil, errors.Validation(map[string]string{"agent_ids": "at least one agent is required"})
	}

	from, to := domain.CivilDate(in.From), domain.CivilDate(in.To)
	if from.After(to) {
		return nil, errors.InvalidRange("from must not be after to")
	}
	days := domain.DaysInclusive(from, to)
	if s.rules.MaxGroupDays > 0 && days > s.rules.MaxGroupDays {
		return nil, errors.GroupRangeTooLong(days, s.rules.MaxGroupDays)
	}

	agents := make(map[string]*domain.Agent, len(agentIDs))
	for _, id := range agentIDs {
		agent, err := s.getAgent(ctx, id)
		if err != nil {
			return nil, err
		}
		agents[id] = agent
	}

	result := &domain.GroupResult{
		AgentIDs: agentIDs,
		From:     from,
		To:       to,
		Status:   in.Status,
		Total:    days * len(agentIDs),
		Failed:   []domain.GroupFailure{},
	}

	writeCtx := context.WithoutCancel(ctx)
	zero := decimal.Zero
	updatedBy := optional(in.UpdatedBy)

	domain.EachDay(from, to, func(day time.Time) {
		status := domain.EffectiveStatus(day, in.Status)

		var extra *decimal.Decimal
		if !status.IsWorking() {
			extra = &zero
		}

		for _, id := range agentIDs {
			_, err := s.entries.UpsertEntry(writeCtx, domain.EntryUpsert{
				AgentID:    id,
				Date:       day,
				Status:     status,
				ExtraHours: extra,
				ClientID:   agents[id].ClientID,
				UpdatedBy:  updatedBy,
			})
			if err != nil {
				result.Failed = append(result.Failed, groupFailure(id, day, storeErr(err)))
				continue
			}
			result.Written++
		}
	})

	s.publisher.PublishGroupApplied(ctx, result, in.UpdatedBy)

	event := s.logger.Info()
	if result.Partial() {
		event = s.logger.Warn()
	}
	event.
		Strs("agent_ids", agentIDs).
		Str("from", domain.FormatDate(from)).
		Str("to", domain.FormatDate(to)).
		Str("status", in.Status.String()).
		Int("written", result.Written).
		Int("total", result.Total).
		Msg("group status applied")

	return result, nil
}

func groupFailure(agentID string, day time.Time, err error) domain.GroupFailure {
	f := domain.GroupFailure{
		AgentID: agentID,
		Date:    domain.FormatDate(day),
		Code:    "STORE_UNAVAILABLE",
		Message: err.Error(),
	}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		f.Code = appErr.Code
		f.Message = appErr.Message
	}
	return f
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
