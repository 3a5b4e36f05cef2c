package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"friendspark/cerr"
	"friendspark/discovery"
	"friendspark/geohash"
	"friendspark/log"
	"friendspark/models"
	"friendspark/proximity"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	events *discovery.Service
	checks map[string]HealthCheck
}

func NewHandler(events *discovery.Service, checks map[string]HealthCheck) *Handler {
	return &Handler{events: events, checks: checks}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn(context.Background(), "writing response", log.Err("err", err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := cerr.StatusCode(err)
	msg := err.Error()
	var ce *cerr.Error
	if errors.As(err, &ce) {
		msg = ce.Err.Error()
	}
	if status >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			log.Err("err", err),
		)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func floatParam(r *http.Request, name string, required bool) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if required {
			return 0, cerr.BadRequestf("missing query parameter %q", name)
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, cerr.BadRequestf("query parameter %q: %q is not a number", name, raw)
	}
	return v, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, cerr.BadRequestf("query parameter %q: %q is not an integer", name, raw)
	}
	return v, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, cerr.BadRequestf("query parameter %q: %q is not a boolean", name, raw)
	}
	return v, nil
}

func eventID(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, cerr.BadRequestf("invalid event id %q", raw)
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return cerr.BadRequestf("invalid request payload: %v", err)
	}
	return nil
}

// EncodeGeohash handles GET /geohash/encode?lat=&lon=&precision=.
func (h *Handler) EncodeGeohash(w http.ResponseWriter, r *http.Request) {
	lat, err := floatParam(r, "lat", true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lon, err := floatParam(r, "lon", true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	precision, err := intParam(r, "precision", proximity.StoragePrecision)
	if err != nil {
		writeError(w, r, err)
		return
	}
	hash, err := geohash.Encode(lat, lon, precision)
	if err != nil {
		writeError(w, r, cerr.BadRequest(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"geohash":   hash,
		"latitude":  lat,
		"longitude": lon,
		"precision": precision,
	})
}

type decodeResponse struct {
	Geohash    string             `json:"geohash"`
	Center     geohash.Coordinate `json:"center"`
	Cell       geohash.Cell       `json:"cell"`
	DiagonalKm float64            `json:"diagonal_km"`
}

// DecodeGeohash handles GET /geohash/{hash}.
func (h *Handler) DecodeGeohash(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	cell, err := geohash.DecodeCell(hash)
	if err != nil {
		writeError(w, r, cerr.BadRequest(err))
		return
	}
	diag, err := proximity.CellDiagonalKm(hash)
	if err != nil {
		writeError(w, r, cerr.BadRequest(err))
		return
	}
	writeJSON(w, http.StatusOK, decodeResponse{
		Geohash:    hash,
		Center:     cell.Center(),
		Cell:       cell,
		DiagonalKm: diag,
	})
}

// GeohashNeighbors handles GET /geohash/{hash}/neighbors.
func (h *Handler) GeohashNeighbors(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	neighbors, err := proximity.Neighbors(hash)
	if err != nil {
		writeError(w, r, cerr.BadRequest(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"geohash":   hash,
		"neighbors": neighbors,
	})
}

// CreateEvent handles POST /events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in models.EventInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.events.CreateEvent(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/events/"+e.ID.String())
	writeJSON(w, http.StatusCreated, e)
}

// GetEvent handles GET /events/{id}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// PatchEvent handles PATCH /events/{id}.
func (h *Handler) PatchEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch models.EventPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.events.UpdateEvent(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteEvent handles DELETE /events/{id}.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.events.DeleteEvent(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEvents handles GET /events?geohash=<prefix> and
// GET /events?creator_id=<uuid>. Exactly one of the two must be given.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("geohash")
	creator := r.URL.Query().Get("creator_id")

	var (
		events []*models.Event
		err    error
	)
	switch {
	case prefix != "" && creator != "":
		err = cerr.BadRequestf("query parameters %q and %q are exclusive", "geohash", "creator_id")
	case creator != "":
		var id uuid.UUID
		if id, err = uuid.Parse(creator); err != nil {
			err = cerr.BadRequestf("invalid creator id %q", creator)
			break
		}
		events, err = h.events.ByCreator(r.Context(), id)
	case prefix != "":
		events, err = h.events.ByPrefix(r.Context(), prefix)
	default:
		err = cerr.BadRequestf("missing query parameter %q or %q", "geohash", "creator_id")
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// NearbyEvents handles
// GET /events/nearby?lat=&lon=&precision=&neighbors=&radius_km=&limit=&widen=.
func (h *Handler) NearbyEvents(w http.ResponseWriter, r *http.Request) {
	q, err := nearbyQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.events.Nearby(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func nearbyQuery(r *http.Request) (discovery.NearbyQuery, error) {
	var (
		q   discovery.NearbyQuery
		err error
	)
	if q.Latitude, err = floatParam(r, "lat", true); err != nil {
		return q, err
	}
	if q.Longitude, err = floatParam(r, "lon", true); err != nil {
		return q, err
	}
	if q.RadiusKm, err = floatParam(r, "radius_km", false); err != nil {
		return q, err
	}
	if q.Precision, err = intParam(r, "precision", 0); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(r, "limit", 0); err != nil {
		return q, err
	}
	if q.Widen, err = intParam(r, "widen", 0); err != nil {
		return q, err
	}
	q.Neighbors, err = boolParam(r, "neighbors")
	return q, err
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	report := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": report})
}
