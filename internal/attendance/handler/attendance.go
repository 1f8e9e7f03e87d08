// Package handler exposes the attendance engine over HTTP.
package handler

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/export"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/service"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/staffdesk/staffdesk-backend/pkg/httputil"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
)

// AttendanceHandler handles the attendance grid and report endpoints
type AttendanceHandler struct {
	service *service.AttendanceService
	logger  *logger.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(svc *service.AttendanceService, log *logger.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the endpoints on r
func (h *AttendanceHandler) Routes(r chi.Router) {
	r.Get("/statuses", h.Statuses)
	r.Get("/agents", h.ListAgents)
	r.Get("/clients", h.ListClients)

	r.Route("/weeks", func(r chi.Router) {
		r.Get("/resolve", h.ResolveWeek)
		r.Get("/{start}", h.GetWeek)
	})

	r.Put("/agents/{agentId}/days/{date}", h.SetDay)
	r.Get("/agents/{agentId}/report", h.AgentReport)
	r.Post("/group", h.ApplyGroup)

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", h.TeamReport)
		r.Get("/export.xlsx", h.ExportReport)
	})
}

// ============================================================================
// WEEKS
// ============================================================================

// ResolveWeek returns the window containing ?date (default today), moved by
// ?shift whole weeks
func (h *AttendanceHandler) ResolveWeek(w http.ResponseWriter, r *http.Request) {
	ref := h.service.Today()
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := domain.ParseDate(s)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		ref = d
	}

	shift := 0
	if s := r.URL.Query().Get("shift"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			httputil.Error(w, errors.BadRequest("shift must be an integer"))
			return
		}
		shift = n
	}

	window := h.service.ResolveWeek(ref, shift)
	httputil.JSON(w, http.StatusOK, newWeekView(window, h.service.CurrentWeek()))
}

// GetWeek returns the grid of the week containing {start}
func (h *AttendanceHandler) GetWeek(w http.ResponseWriter, r *http.Request) {
	start, err := domain.ParseDate(chi.URLParam(r, "start"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	grid, err := h.service.LoadWeek(r.Context(), start, agentFilter(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	view := newWeekView(grid.Window, h.service.CurrentWeek())
	view.Rows = make([]RowView, 0, len(grid.Rows))
	for _, row := range grid.Rows {
		view.Rows = append(view.Rows, newRowView(row))
	}

	httputil.JSONWithMeta(w, http.StatusOK, view, &httputil.Meta{Total: int64(len(view.Rows))})
}

// ============================================================================
// EDITS
// ============================================================================

// SetDay records one agent's status on one date
func (h *AttendanceHandler) SetDay(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")
	date, err := domain.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req SetDayRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	entry, err := h.service.SetStatus(r.Context(), service.SetStatusInput{
		AgentID:    agentID,
		Date:       date,
		Status:     status,
		ExtraHours: req.ExtraHours,
		UpdatedBy:  httputil.GetUserID(r.Context()),
	})
	if err != nil {
		h.logFailure(r, err).
			Str("agent_id", agentID).
			Str("date", domain.FormatDate(date)).
			Msg("attendance edit rejected")
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// ApplyGroup sets one status for several agents over a date range. A partly
// applied edit answers 207 with the failures listed.
func (h *AttendanceHandler) ApplyGroup(w http.ResponseWriter, r *http.Request) {
	var req GroupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	from, err := domain.ParseDate(req.From)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	to, err := domain.ParseDate(req.To)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.ApplyGroup(r.Context(), service.GroupInput{
		AgentIDs:  req.AgentIDs,
		From:      from,
		To:        to,
		Status:    status,
		UpdatedBy: httputil.GetUserID(r.Context()),
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	code := http.StatusOK
	if len(result.Failed) > 0 {
		code = http.StatusMultiStatus
		h.logger.Warn().
			Str("request_id", httputil.GetRequestID(r.Context())).
			Int("written", result.Written).
			Int("failed", len(result.Failed)).
			Msg("group edit partly applied")
	}

	httputil.JSONWithMeta(w, code, result, &httputil.Meta{
		Total:   int64(result.Total),
		Written: int64(result.Written),
		Failed:  int64(len(result.Failed)),
	})
}

// ============================================================================
// REPORTS
// ============================================================================

// AgentReport returns one agent's report over the requested range
func (h *AttendanceHandler) AgentReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.reportRange(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	report, err := h.service.ComputeReport(r.Context(), chi.URLParam(r, "agentId"), from, to)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, newReportView(*report))
}

// TeamReport returns one report per listed agent
func (h *AttendanceHandler) TeamReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.reportRange(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	reports, err := h.service.ComputeTeamReport(r.Context(), from, to, agentFilter(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	views := make([]ReportView, 0, len(reports))
	for _, rep := range reports {
		views = append(views, newReportView(rep))
	}

	httputil.JSONWithMeta(w, http.StatusOK, views, &httputil.Meta{Total: int64(len(views))})
}

// ExportReport downloads the team report as an xlsx workbook
func (h *AttendanceHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.reportRange(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	reports, err := h.service.ComputeTeamReport(r.Context(), from, to, agentFilter(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTeamReport(&buf, from, to, reports); err != nil {
		h.logger.Error().Err(err).Msg("failed to render attendance workbook")
		httputil.Error(w, errors.Internal("failed to render report"))
		return
	}

	httputil.Attachment(w, export.ContentType, export.FileName(from, to), buf.Bytes())
}

// ============================================================================
// LOOKUPS
// ============================================================================

// Statuses lists the selectable statuses with their labels and colors
func (h *AttendanceHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, StatusViews())
}

// ListAgents lists the directory, optionally for one client
func (h *AttendanceHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.service.ListAgents(r.Context(), agentFilter(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, agents, &httputil.Meta{Total: int64(len(agents))})
}

// ListClients lists the clients
func (h *AttendanceHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, clients)
}

// reportRange reads ?month, or ?start and ?end
func (h *AttendanceHandler) reportRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	return h.service.ReportRange(q.Get("month"), q.Get("start"), q.Get("end"))
}

func agentFilter(r *http.Request) domain.AgentFilter {
	var filter domain.AgentFilter
	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		filter.ClientID = &clientID
	}
	return filter
}

// logFailure picks the level for a failed request: store outages are errors,
// rule violations are routine.
func (h *AttendanceHandler) logFailure(r *http.Request, err error) *zerolog.Event {
	ev := h.logger.Info()
	if errors.Is(err, errors.ErrStoreUnavailable) {
		ev = h.logger.Error()
	}
	return ev.Err(err).Str("request_id", httputil.GetRequestID(r.Context()))
}
