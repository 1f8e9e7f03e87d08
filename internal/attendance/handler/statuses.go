package handler

import "github.com/staffdesk/staffdesk-backend/internal/attendance/domain"

// StatusView is how a status is shown in the grid
type StatusView struct {
	Status domain.Status `json:"status"`
	Label  string        `json:"label"`
	Color  string        `json:"color"`
}

var statusViews = map[domain.Status]StatusView{
	domain.StatusPresentOffice: {domain.StatusPresentOffice, "Present In Office", "#4CAF50"},
	domain.StatusPresentHome:   {domain.StatusPresentHome, "Present From Home", "#8BC34A"},
	domain.StatusAbsent:        {domain.StatusAbsent, "Absent", "#FFEB3B"},
	domain.StatusSickLeave:     {domain.StatusSickLeave, "Sick Leave", "#FF9800"},
	domain.StatusVacation:      {domain.StatusVacation, "Vacation", "#2196F3"},
	domain.StatusHoliday:       {domain.StatusHoliday, "Holiday", "#9C27B0"},
	domain.StatusDayOff:        {domain.StatusDayOff, "Day Off", "#F44336"},
	domain.StatusWorkHoliday:   {domain.StatusWorkHoliday, "Work on Holiday", "#FF5722"},
}

var unsetView = StatusView{Status: domain.StatusUnset, Label: "  -------  ", Color: "#FFFFFF"}

// ViewOf returns the label and color of s. Unknown values render as unset.
func ViewOf(s domain.Status) StatusView {
	if v, ok := statusViews[s]; ok {
		return v
	}
	return unsetView
}

// StatusViews lists the selectable statuses in display order
func StatusViews() []StatusView {
	out := make([]StatusView, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		out = append(out, statusViews[s])
	}
	return out
}
