package domain

import "time"

// DaysPerWeek is the fixed width of a window
const DaysPerWeek = 7

// WeekDay describes one column of the grid
type WeekDay struct {
	Name    string
	Date    string
	Display string
}

// WeekWindow is a Monday-anchored seven day span
type WeekWindow struct {
	Start time.Time
	Days  [DaysPerWeek]WeekDay
}

// WeekStart rounds a date down to its Monday. Only the calendar date of ref
// matters; time of day and location offset are ignored.
func WeekStart(ref time.Time) time.Time {
	d := CivilDate(ref)
	// Monday=0 ... Sunday=6
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// ResolveWeek returns the window containing ref
func ResolveWeek(ref time.Time) WeekWindow {
	start := WeekStart(ref)
	w := WeekWindow{Start: start}
	for i := 0; i < DaysPerWeek; i++ {
		d := start.AddDate(0, 0, i)
		w.Days[i] = WeekDay{
			Name:    d.Weekday().String(),
			Date:    d.Format(DateLayout),
			Display: d.Format(DisplayLayout),
		}
	}
	return w
}

// Shift moves the window by n whole weeks
func (w WeekWindow) Shift(n int) WeekWindow {
	return ResolveWeek(w.Start.AddDate(0, 0, DaysPerWeek*n))
}

// End is the exclusive upper bound, the following Monday
func (w WeekWindow) End() time.Time {
	return w.Start.AddDate(0, 0, DaysPerWeek)
}

// Last is the window's Sunday
func (w WeekWindow) Last() time.Time {
	return w.Start.AddDate(0, 0, DaysPerWeek-1)
}

// Contains reports whether the civil date of d falls inside the window
func (w WeekWindow) Contains(d time.Time) bool {
	d = CivilDate(d)
	return !d.Before(w.Start) && d.Before(w.End())
}

// Index returns the column of d, or -1 when d lies outside the window
func (w WeekWindow) Index(d time.Time) int {
	if !w.Contains(d) {
		return -1
	}
	return int(CivilDate(d).Sub(w.Start).Hours() / 24)
}
