package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ayusman/tracematch/internal/app"
)

// SamplesHandler handles recorded stroke samples for a gesture.
// Posting samples replaces the gesture's templates with ones built from them.
type SamplesHandler struct {
	app *app.App
}

// NewSamplesHandler creates a new SamplesHandler for the given app.
func NewSamplesHandler(a *app.App) *SamplesHandler {
	return &SamplesHandler{app: a}
}

// Register adds the handler's routes to r.
func (h *SamplesHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/gestures/{name}/samples", h.create).Methods(http.MethodPost)
	r.HandleFunc("/api/gestures/{name}/samples", h.list).Methods(http.MethodGet)
	r.HandleFunc("/api/gestures/{name}/samples", h.delete).Methods(http.MethodDelete)
}

// createSamplesRequest represents the request body for uploading samples.
type createSamplesRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

// createSamplesResponse reports the result of training from samples.
type createSamplesResponse struct {
	Gesture   string `json:"gesture"`
	Samples   int    `json:"samples"`
	Templates int    `json:"templates"`
}

// sampleResponse represents a sample in API responses.
type sampleResponse struct {
	ID          string          `json:"id"`
	GestureName string          `json:"gesture_name"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

// listSamplesResponse represents the response for listing samples.
type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

// create handles POST /api/gestures/{name}/samples.
func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req createSamplesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	templates, err := h.app.TrainSamples(name, req.Samples)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, createSamplesResponse{
		Gesture:   name,
		Samples:   len(req.Samples),
		Templates: len(templates),
	})
}

// list handles GET /api/gestures/{name}/samples.
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request) {
	samples, err := h.app.Store().Samples().GetByGesture(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{
		Samples: make([]sampleResponse, 0, len(samples)),
	}
	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			GestureName: s.GestureName,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// delete handles DELETE /api/gestures/{name}/samples.
func (h *SamplesHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Store().Samples().DeleteByGesture(mux.Vars(r)["name"]); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete samples")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
