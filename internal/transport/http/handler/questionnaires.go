package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/intake-api/internal/application/questionnaire"
	"github.com/intake-api/internal/domain"
)

// QuestionnaireHandler serves the encrypted-record endpoints. The session
// token travels as a query parameter on every call.
type QuestionnaireHandler struct {
	svc questionnaire.Service
}

func NewQuestionnaireHandler(svc questionnaire.Service) *QuestionnaireHandler {
	return &QuestionnaireHandler{svc: svc}
}

func (h *QuestionnaireHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.List(r.Context(), r.URL.Query().Get("sessionToken"))
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			slog.Error("questionnaire listing failed", "err", err)
		}
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QuestionnairesEnvelope{Success: true, Questionnaires: subs})
}

func (h *QuestionnaireHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.svc.Submit(r.Context(), r.URL.Query().Get("sessionToken"), payload)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			slog.Error("questionnaire submission failed", "err", err)
		}
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": rec.RecordID})
}

func (h *QuestionnaireHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := h.svc.Update(r.Context(), r.URL.Query().Get("sessionToken"), chi.URLParam(r, "id"), payload)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) && !errors.Is(err, domain.ErrNotFound) {
			slog.Error("questionnaire update failed", "err", err)
		}
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "questionnaire updated"})
}
