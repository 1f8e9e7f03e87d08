package domain

import (
	"strings"

	"github.com/staffdesk/staffdesk-backend/pkg/errors"
)

// Status is the attendance state of one agent on one day. The identifiers are
// persisted and sent over the wire as-is.
type Status string

const (
	StatusPresentOffice Status = "present-office"
	StatusPresentHome   Status = "present-home"
	StatusAbsent        Status = "absent"
	StatusSickLeave     Status = "sick-leave"
	StatusVacation      Status = "vacation"
	StatusHoliday       Status = "holiday"
	StatusDayOff        Status = "day-off"
	StatusWorkHoliday   Status = "work-holiday"

	// StatusUnset marks a cell with no decision. It resets a cell and is
	// never counted in reports.
	StatusUnset Status = "unset"
)

// Statuses is the closed vocabulary in display order. StatusUnset is not part of it.
var Statuses = []Status{
	StatusPresentOffice,
	StatusPresentHome,
	StatusAbsent,
	StatusSickLeave,
	StatusVacation,
	StatusHoliday,
	StatusDayOff,
	StatusWorkHoliday,
}

// ParseStatus validates a wire value. Surrounding whitespace is ignored,
// case is not.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if !st.Valid() {
		return "", errors.UnknownStatus(s)
	}
	return st, nil
}

// Valid reports whether s is a member of the vocabulary or the unset marker.
func (s Status) Valid() bool {
	if s == StatusUnset {
		return true
	}
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsWorking reports whether the day counts as worked: it earns the standard
// day plus extra hours and may carry extra hours at all.
func (s Status) IsWorking() bool {
	switch s {
	case StatusPresentOffice, StatusPresentHome, StatusWorkHoliday:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
