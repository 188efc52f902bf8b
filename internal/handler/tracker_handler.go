package handler

import (
	"net/http"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/duration"
)

func (h *Handler) StartTracking(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, err)
		return
	}

	entry, err := h.trackerService.Start(r.Context(), sessionFrom(r), req.TaskID, req.Notes)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainEntryToHTTP(entry))
}

func (h *Handler) StopTracking(w http.ResponseWriter, r *http.Request) {
	var req StopRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, err)
		return
	}

	entry, err := h.trackerService.Stop(r.Context(), sessionFrom(r), req.EntryID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainEntryToHTTP(entry))
}

func (h *Handler) GetActiveEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.trackerService.ActiveEntry(r.Context(), sessionFrom(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	resp := ActiveEntryResponse{Entry: optionalEntryToHTTP(entry)}
	if entry != nil {
		if secs, err := duration.Elapsed(entry.StartTime, h.now()); err == nil {
			resp.Elapsed = duration.Humanize(secs)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.trackerService.Complete(r.Context(), sessionFrom(r), pathID(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainTaskToHTTP(task))
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	from, err := timeParam(r, "from")
	if err != nil {
		h.handleError(w, err)
		return
	}
	to, err := timeParam(r, "to")
	if err != nil {
		h.handleError(w, err)
		return
	}

	entries, err := h.trackerService.ListEntries(r.Context(), sessionFrom(r), domain.EntryFilter{
		TaskID: r.URL.Query().Get("task_id"),
		From:   from,
		To:     to,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainEntriesToHTTP(entries))
}

func (h *Handler) TotalInRange(w http.ResponseWriter, r *http.Request) {
	from, err := requiredTimeParam(r, "from")
	if err != nil {
		h.handleError(w, err)
		return
	}
	to, err := requiredTimeParam(r, "to")
	if err != nil {
		h.handleError(w, err)
		return
	}

	total, err := h.trackerService.TotalInRange(r.Context(), sessionFrom(r), from, to)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TotalResponse{
		Seconds: total,
		Human:   duration.Humanize(total),
	})
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req UpdateEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, err)
		return
	}

	entry, err := h.trackerService.UpdateEntry(r.Context(), sessionFrom(r), pathID(r), httpEntryPatchToDomain(req))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainEntryToHTTP(entry))
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.trackerService.DeleteEntry(r.Context(), sessionFrom(r), pathID(r)); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
