package handler

import "net/http"

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), sessionFrom(r), httpTaskToInput(req))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainTaskToHTTP(task))
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.Get(r.Context(), sessionFrom(r), pathID(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainTaskToHTTP(task))
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.List(r.Context(), sessionFrom(r), r.URL.Query().Get("project_id"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainTasksToHTTP(tasks))
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, err)
		return
	}

	task, err := h.taskService.Update(r.Context(), sessionFrom(r), pathID(r), httpTaskPatchToDomain(req))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainTaskToHTTP(task))
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.taskService.Delete(r.Context(), sessionFrom(r), pathID(r)); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetTaskProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.taskService.Progress(r.Context(), sessionFrom(r), pathID(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProgressResponse{
		TaskID:       progress.TaskID,
		SpentSeconds: progress.SpentSeconds,
		Percent:      progress.Percent,
	})
}
