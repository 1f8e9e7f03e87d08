package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyReport aggregates one agent's entries over [From, To]
type MonthlyReport struct {
	AgentID         string          `json:"agent_id"`
	AgentName       string          `json:"agent_name,omitempty"`
	From            time.Time       `json:"-"`
	To              time.Time       `json:"-"`
	PresentInOffice int             `json:"present_in_office"`
	WorkingFromHome int             `json:"working_from_home"`
	Absent          int             `json:"absent"`
	SickLeave       int             `json:"sick_leave"`
	Vacation        int             `json:"vacation"`
	Holiday         int             `json:"holiday"`
	DayOff          int             `json:"day_off"`
	WorkOnHoliday   int             `json:"work_on_holiday"`
	SundayWork      int             `json:"sunday_work"`
	ExtraHours      decimal.Decimal `json:"extra_hours"`
	WorkingHours    decimal.Decimal `json:"working_hours"`
	// Entries counts the classified entries, unset ones excluded
	Entries int `json:"entries"`
}

// NewReport returns an empty report for the range
func NewReport(agentID string, from, to time.Time) MonthlyReport {
	return MonthlyReport{
		AgentID:      agentID,
		From:         CivilDate(from),
		To:           CivilDate(to),
		ExtraHours:   decimal.Zero,
		WorkingHours: decimal.Zero,
	}
}

// Add folds one entry into the report. Every step is an addition so the
// final totals do not depend on the order entries are added in.
func (r *MonthlyReport) Add(e Entry, standardDay decimal.Decimal) {
	switch e.Status {
	case StatusPresentOffice:
		r.PresentInOffice++
	case StatusPresentHome:
		r.WorkingFromHome++
	case StatusWorkHoliday:
		r.WorkOnHoliday++
	case StatusAbsent:
		r.Absent++
	case StatusSickLeave:
		r.SickLeave++
	case StatusVacation:
		r.Vacation++
	case StatusHoliday:
		r.Holiday++
	case StatusDayOff:
		r.DayOff++
	default:
		return
	}
	r.Entries++

	if !e.Status.IsWorking() {
		return
	}
	r.ExtraHours = r.ExtraHours.Add(e.ExtraHours)
	r.WorkingHours = r.WorkingHours.Add(standardDay).Add(e.ExtraHours)
	if e.Date.Weekday() == time.Sunday {
		r.SundayWork++
	}
}

// FoldReport computes the report of agentID from entries. Entries of other
// agents or outside [from, to] are skipped.
func FoldReport(agentID string, from, to time.Time, entries []Entry, standardDayHours int) MonthlyReport {
	report := NewReport(agentID, from, to)
	standardDay := decimal.NewFromInt(int64(standardDayHours))

	for _, e := range entries {
		if e.AgentID != agentID {
			continue
		}
		d := CivilDate(e.Date)
		if d.Before(report.From) || d.After(report.To) {
			continue
		}
		report.Add(e, standardDay)
	}

	return report
}
