package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"notesapp/internal/note/model"
	"notesapp/internal/note/service"
	"notesapp/middleware"
	"notesapp/pkg/logger"
	"notesapp/socket"
)

// maxBodyBytes fits the longest note with every rune escaped as a
// surrogate pair (12 bytes) plus the surrounding object.
const maxBodyBytes = 12*model.MaxTextLength + 64

type NoteHandler struct {
	Service *service.NoteService
	Hub     *socket.Hub
}

func NewNoteHandler(service *service.NoteService, hub *socket.Hub) *NoteHandler {
	return &NoteHandler{Service: service, Hub: hub}
}

func (h *NoteHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	notes, err := h.Service.List(r.Context(), userID)
	if err != nil {
		h.fail(w, "list notes", err)
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	note, err := h.Service.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.fail(w, "get note", err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	req, ok := decodeNoteRequest(w, r)
	if !ok {
		return
	}

	note, err := h.Service.Create(r.Context(), userID, req)
	if err != nil {
		h.fail(w, "create note", err)
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	req, ok := decodeNoteRequest(w, r)
	if !ok {
		return
	}

	note, err := h.Service.Update(r.Context(), userID, r.PathValue("id"), req)
	if err != nil {
		h.fail(w, "update note", err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.Service.Delete(r.Context(), userID, id); err != nil {
		h.fail(w, "delete note", err)
		return
	}

	writeJSON(w, http.StatusOK, model.DeleteNoteResponse{ID: id})
}

// Events streams the caller's note changes over a websocket.
func (h *NoteHandler) Events(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	socket.ServeWs(h.Hub, w, r, userID)
}

func (h *NoteHandler) fail(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, model.ErrNoteNotFound):
		writeError(w, http.StatusNotFound, model.ErrNoteNotFound.Error())
	case errors.Is(err, model.ErrEmptyText), errors.Is(err, model.ErrTextTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Sugar.Errorf("Handler: Failed to %s: %v", action, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// currentUserID answers 401 itself when the gate did not run.
func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return user.ID, true
}

func decodeNoteRequest(w http.ResponseWriter, r *http.Request) (model.NoteRequest, bool) {
	var req model.NoteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return model.NoteRequest{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Handler: Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}
