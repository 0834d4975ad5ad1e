package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ayusman/tracematch/internal/app"
	"github.com/ayusman/tracematch/internal/location"
	"github.com/ayusman/tracematch/internal/store"
)

// LocationsHandler serves locations, recorded fingerprints and location matching.
type LocationsHandler struct {
	app *app.App
}

// NewLocationsHandler creates a new LocationsHandler for the given app.
func NewLocationsHandler(a *app.App) *LocationsHandler {
	return &LocationsHandler{app: a}
}

// Register adds the handler's routes to r.
func (h *LocationsHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/locations", h.listLocations).Methods(http.MethodGet)
	r.HandleFunc("/api/locations/{name}", h.deleteLocation).Methods(http.MethodDelete)
	r.HandleFunc("/api/fingerprints", h.listFingerprints).Methods(http.MethodGet)
	r.HandleFunc("/api/fingerprints", h.createFingerprint).Methods(http.MethodPost)
	r.HandleFunc("/api/locate", h.locate).Methods(http.MethodPost)
	r.HandleFunc("/api/locate", h.current).Methods(http.MethodGet)
}

// listLocationsResponse represents the response for listing locations.
type listLocationsResponse struct {
	Locations []app.LocationInfo `json:"locations"`
}

// deleteLocationResponse reports how many fingerprints were removed.
type deleteLocationResponse struct {
	Location string `json:"location"`
	Deleted  int64  `json:"deleted"`
}

// fingerprintRequest represents the request body for recording a fingerprint.
// When Readings is omitted the access points currently in range are scanned.
type fingerprintRequest struct {
	Location string             `json:"location"`
	Readings []location.Reading `json:"readings"`
}

// fingerprintResponse represents a recorded fingerprint.
type fingerprintResponse struct {
	ID       int64              `json:"id,omitempty"`
	Location string             `json:"location"`
	Readings []location.Reading `json:"readings"`
}

// listFingerprintsResponse represents the response for listing fingerprints.
type listFingerprintsResponse struct {
	Fingerprints []fingerprintResponse `json:"fingerprints"`
}

// locateRequest carries the readings to locate. When Readings is omitted a scan is performed.
type locateRequest struct {
	Readings []location.Reading `json:"readings"`
}

// listLocations handles GET /api/locations.
func (h *LocationsHandler) listLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.app.Locations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list locations")
		return
	}
	writeJSON(w, http.StatusOK, listLocationsResponse{Locations: locations})
}

// deleteLocation handles DELETE /api/locations/{name}.
func (h *LocationsHandler) deleteLocation(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	n, err := h.app.DeleteLocation(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Location not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete location")
		return
	}

	writeJSON(w, http.StatusOK, deleteLocationResponse{Location: name, Deleted: n})
}

// listFingerprints handles GET /api/fingerprints.
func (h *LocationsHandler) listFingerprints(w http.ResponseWriter, r *http.Request) {
	fps, err := h.app.Fingerprints(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list fingerprints")
		return
	}

	response := listFingerprintsResponse{
		Fingerprints: make([]fingerprintResponse, 0, len(fps)),
	}
	for _, fp := range fps {
		response.Fingerprints = append(response.Fingerprints, fingerprintResponse{
			Location: fp.Location,
			Readings: fp.Readings(),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// createFingerprint handles POST /api/fingerprints.
func (h *LocationsHandler) createFingerprint(w http.ResponseWriter, r *http.Request) {
	var req fingerprintRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Location == "" {
		writeError(w, http.StatusBadRequest, "Location is required")
		return
	}

	readings := req.Readings
	if readings == nil {
		var ok bool
		if readings, ok = h.scan(w, r); !ok {
			return
		}
	}

	id, err := h.app.RecordFingerprint(r.Context(), req.Location, readings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record fingerprint")
		return
	}

	writeJSON(w, http.StatusCreated, fingerprintResponse{
		ID:       id,
		Location: req.Location,
		Readings: location.NewFingerprint(req.Location, readings).Readings(),
	})
}

// locate handles POST /api/locate.
func (h *LocationsHandler) locate(w http.ResponseWriter, r *http.Request) {
	var req locateRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	readings := req.Readings
	if readings == nil {
		var ok bool
		if readings, ok = h.scan(w, r); !ok {
			return
		}
	}

	writeJSON(w, http.StatusOK, h.app.Locator().Locate(readings))
}

// current handles GET /api/locate and returns the latest result of the locate loop.
func (h *LocationsHandler) current(w http.ResponseWriter, r *http.Request) {
	result, ok := h.app.Locator().Current()
	if !ok {
		writeError(w, http.StatusNotFound, "No location result yet")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// scan reads the access points in range, writing an error response on failure.
func (h *LocationsHandler) scan(w http.ResponseWriter, r *http.Request) ([]location.Reading, bool) {
	readings, err := h.app.Scan(r.Context())
	if errors.Is(err, location.ErrNoScanner) {
		writeError(w, http.StatusServiceUnavailable, "No scanner available")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "Scan failed: "+err.Error())
		return nil, false
	}
	return readings, true
}
