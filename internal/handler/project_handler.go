package handler

import "net/http"

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, err)
		return
	}

	project, err := h.projectService.Create(r.Context(), sessionFrom(r), httpProjectToInput(req))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainProjectToHTTP(project))
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.projectService.Get(r.Context(), sessionFrom(r), pathID(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainProjectToHTTP(project))
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.List(r.Context(), sessionFrom(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainProjectsToHTTP(projects))
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, err)
		return
	}

	project, err := h.projectService.Update(r.Context(), sessionFrom(r), pathID(r), httpProjectToInput(req))
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainProjectToHTTP(project))
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projectService.Delete(r.Context(), sessionFrom(r), pathID(r)); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
