package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ayusman/tracematch/internal/app"
	"github.com/ayusman/tracematch/internal/gesture"
)

// TemplatesHandler serves the gesture templates, recognition and interactive training.
type TemplatesHandler struct {
	app *app.App
}

// NewTemplatesHandler creates a new TemplatesHandler for the given app.
func NewTemplatesHandler(a *app.App) *TemplatesHandler {
	return &TemplatesHandler{app: a}
}

// Register adds the handler's routes to r.
func (h *TemplatesHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/templates", h.list).Methods(http.MethodGet)
	r.HandleFunc("/api/templates", h.reset).Methods(http.MethodDelete)
	r.HandleFunc("/api/recognize", h.recognize).Methods(http.MethodPost)
	r.HandleFunc("/api/training", h.prompt).Methods(http.MethodGet)
	r.HandleFunc("/api/training", h.train).Methods(http.MethodPost)
	r.HandleFunc("/api/training/reset", h.restart).Methods(http.MethodPost)
}

// strokeRequest is the request body carrying a drawn stroke.
type strokeRequest struct {
	Points []gesture.Point `json:"points"`
}

// templateResponse represents a template in API responses.
type templateResponse struct {
	ID     int             `json:"id"`
	Name   string          `json:"name"`
	Vector []gesture.Point `json:"vector"`
}

// listTemplatesResponse represents the response for listing templates.
type listTemplatesResponse struct {
	Templates []templateResponse `json:"templates"`
	Count     int                `json:"count"`
}

// matchResponse represents a recognized gesture.
type matchResponse struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Theta float64 `json:"theta"`
}

// recognizeResponse wraps the match, which is null when nothing matched.
type recognizeResponse struct {
	Match *matchResponse `json:"match"`
}

// trainResponse is returned after a training example was recorded.
type trainResponse struct {
	Template templateResponse `json:"template"`
	Next     gesture.Prompt   `json:"next"`
}

func toTemplateResponse(t *gesture.Template) templateResponse {
	return templateResponse{ID: t.ID, Name: t.Name, Vector: t.Vector}
}

// list handles GET /api/templates.
func (h *TemplatesHandler) list(w http.ResponseWriter, r *http.Request) {
	templates := h.app.Templates().List()

	response := listTemplatesResponse{
		Templates: make([]templateResponse, 0, len(templates)),
		Count:     len(templates),
	}
	for _, t := range templates {
		response.Templates = append(response.Templates, toTemplateResponse(t))
	}

	writeJSON(w, http.StatusOK, response)
}

// reset handles DELETE /api/templates.
func (h *TemplatesHandler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.app.ResetTemplates(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset templates")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recognize handles POST /api/recognize.
func (h *TemplatesHandler) recognize(w http.ResponseWriter, r *http.Request) {
	var req strokeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := gesture.CanonicalizeStroke(req.Points); err != nil {
		writeStrokeError(w, err)
		return
	}

	var response recognizeResponse
	if m := h.app.Recognize(req.Points); m != nil {
		response.Match = &matchResponse{
			ID:    m.Template.ID,
			Name:  m.Template.Name,
			Score: m.Score,
			Theta: m.Theta,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// prompt handles GET /api/training.
func (h *TemplatesHandler) prompt(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Trainer().Prompt())
}

// train handles POST /api/training.
func (h *TemplatesHandler) train(w http.ResponseWriter, r *http.Request) {
	var req strokeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, next, err := h.app.Train(req.Points)
	switch {
	case errors.Is(err, gesture.ErrTrainingComplete):
		writeError(w, http.StatusConflict, "Training is complete")
		return
	case errors.Is(err, gesture.ErrEmptyStroke), errors.Is(err, gesture.ErrInvalidStroke):
		writeStrokeError(w, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to save template")
		return
	}

	writeJSON(w, http.StatusCreated, trainResponse{Template: toTemplateResponse(t), Next: next})
}

// writeStrokeError reports a stroke that cannot be canonicalized.
func writeStrokeError(w http.ResponseWriter, err error) {
	if errors.Is(err, gesture.ErrInvalidStroke) {
		writeError(w, http.StatusBadRequest, "Stroke coordinates out of range")
		return
	}
	writeError(w, http.StatusBadRequest, "Stroke has no points")
}

// restart handles POST /api/training/reset.
func (h *TemplatesHandler) restart(w http.ResponseWriter, r *http.Request) {
	if err := h.app.ResetTemplates(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset training")
		return
	}
	writeJSON(w, http.StatusOK, h.app.Trainer().Prompt())
}
