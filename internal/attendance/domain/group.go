package domain

import "time"

// EffectiveStatus applies the weekend policy of group edits: Saturdays and
// Sundays are always written as day-off.
func EffectiveStatus(day time.Time, requested Status) Status {
	if IsWeekend(day) {
		return StatusDayOff
	}
	return requested
}

// GroupFailure is one (agent, day) pair a group edit could not write
type GroupFailure struct {
	AgentID string `json:"agent_id"`
	Date    string `json:"date"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GroupResult reports the outcome of a group edit. Written+len(Failed) == Total.
type GroupResult struct {
	AgentIDs []string       `json:"agent_ids"`
	From     time.Time      `json:"-"`
	To       time.Time      `json:"-"`
	Status   Status         `json:"status"`
	Written  int            `json:"written"`
	Total    int            `json:"total"`
	Failed   []GroupFailure `json:"failed"`
}

// Partial reports whether some but not necessarily all writes failed
func (r *GroupResult) Partial() bool {
	return len(r.Failed) > 0
}
