package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/httputil"
)

func init() {
	// hours travel as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	_ = httputil.RegisterCustomValidation("attendance_status", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseStatus(fl.Field().String())
		return err == nil
	})
}

// SetDayRequest is the body of a single cell edit
type SetDayRequest struct {
	Status string `json:"status" validate:"required,attendance_status"`
	// ExtraHours omitted keeps the stored value
	ExtraHours *decimal.Decimal `json:"extra_hours,omitempty"`
}

// GroupRequest is the body of a group edit
type GroupRequest struct {
	AgentIDs []string `json:"agent_ids" validate:"required,min=1,dive,required"`
	From     string   `json:"from" validate:"required,datetime=2006-01-02"`
	To       string   `json:"to" validate:"required,datetime=2006-01-02"`
	Status   string   `json:"status" validate:"required,attendance_status"`
}

// DayView is one rendered grid cell
type DayView struct {
	Date       string          `json:"date"`
	Status     domain.Status   `json:"status"`
	Label      string          `json:"label"`
	Color      string          `json:"color"`
	ExtraHours decimal.Decimal `json:"extra_hours"`
	Recorded   bool            `json:"recorded"`
}

// RowView is one agent's rendered week
type RowView struct {
	Agent domain.Agent `json:"agent"`
	Days  []DayView    `json:"days"`
}

// ColumnView is one grid column header
type ColumnView struct {
	Name    string `json:"name"`
	Date    string `json:"date"`
	Display string `json:"display"`
}

// WeekView is the response of the week endpoints
type WeekView struct {
	Start    string       `json:"start"`
	End      string       `json:"end"`
	Current  bool         `json:"current"`
	Previous string       `json:"previous"`
	Next     string       `json:"next"`
	Columns  []ColumnView `json:"columns"`
	Rows     []RowView    `json:"rows,omitempty"`
}

// ReportView adds the range to a report
type ReportView struct {
	domain.MonthlyReport
	From string `json:"from"`
	To   string `json:"to"`
}

func newWeekView(window domain.WeekWindow, current domain.WeekWindow) WeekView {
	v := WeekView{
		Start:    domain.FormatDate(window.Start),
		End:      domain.FormatDate(window.Last()),
		Current:  window.Start.Equal(current.Start),
		Previous: domain.FormatDate(window.Shift(-1).Start),
		Next:     domain.FormatDate(window.Shift(1).Start),
		Columns:  make([]ColumnView, 0, domain.DaysPerWeek),
	}
	for _, d := range window.Days {
		v.Columns = append(v.Columns, ColumnView{Name: d.Name, Date: d.Date, Display: d.Display})
	}
	return v
}

func newRowView(row domain.GridRow) RowView {
	days := make([]DayView, 0, domain.DaysPerWeek)
	for _, c := range row.Cells {
		view := ViewOf(c.Status)
		days = append(days, DayView{
			Date:       c.Date,
			Status:     c.Status,
			Label:      view.Label,
			Color:      view.Color,
			ExtraHours: c.ExtraHours,
			Recorded:   c.Recorded,
		})
	}
	return RowView{Agent: row.Agent, Days: days}
}

func newReportView(r domain.MonthlyReport) ReportView {
	return ReportView{
		MonthlyReport: r,
		From:          domain.FormatDate(r.From),
		To:            domain.FormatDate(r.To),
	}
}
