package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bagdasarian/time-tracker/internal/aggregation"
	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/export"
	"github.com/bagdasarian/time-tracker/internal/service"
)

func reportFilterFromRequest(r *http.Request) (service.ReportFilter, error) {
	query := r.URL.Query()
	filter := service.ReportFilter{
		ProjectID: query.Get("project_id"),
		UserID:    query.Get("user_id"),
	}

	var err error
	if filter.From, err = timeParam(r, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = timeParam(r, "to"); err != nil {
		return filter, err
	}

	if groupBy := query.Get("group_by"); groupBy != "" {
		if filter.GroupBy, err = aggregation.ParseGroupBy(groupBy); err != nil {
			return filter, err
		}
	}

	if tz := query.Get("tz"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return filter, domain.NewInvalidInputError("unknown time zone %q", tz)
		}
		filter.Location = loc
	}
	return filter, nil
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	filter, err := reportFilterFromRequest(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	report, err := h.reportService.Generate(r.Context(), sessionFrom(r), filter)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainReportToHTTP(report))
}

func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	filter, err := reportFilterFromRequest(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	file, err := h.reportService.Export(r.Context(), sessionFrom(r), filter, format)
	if err != nil {
		h.handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.reportService.Dashboard(r.Context(), sessionFrom(r), h.now())
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainDashboardToHTTP(dashboard))
}
