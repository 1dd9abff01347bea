package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/service"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/store"
	"github.com/autopeer-io/truckhub/internal/truckhub/stream"
	"github.com/autopeer-io/truckhub/pkg/log"
)

type handler struct {
	svc   *service.Service
	hub   *stream.Hub
	ready func() bool
}

type registerRequest struct {
	IMEI string `json:"imei"`
}

type commandRequest struct {
	Kind  model.CommandKind `json:"kind"`
	Value string            `json:"value"`
}

type commandResponse struct {
	Success bool `json:"success"`
	*model.CommandResult
}

type locationResponse struct {
	Success bool     `json:"success"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

type deviceResponse struct {
	IMEI     string                       `json:"imei"`
	Location *model.Location              `json:"location"`
	Latest   map[model.Class]model.Record `json:"latest"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err, "Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *handler) listDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"devices": h.svc.Devices()})
}

func (h *handler) registerDevice(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.svc.Register(r.Context(), req.IMEI)
	switch {
	case errors.Is(err, service.ErrInvalidDeviceID):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		// The device is registered; its topics follow on the next connect.
		log.Error(err, "Subscribe after register failed", "imei", req.IMEI)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"success": true, "imei": req.IMEI, "created": created})
}

func (h *handler) getDevice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["imei"]
	if !h.svc.IsRegistered(id) {
		writeError(w, http.StatusNotFound, store.ErrUnknownDevice)
		return
	}

	resp := deviceResponse{IMEI: id, Latest: make(map[model.Class]model.Record)}
	if loc, ok := h.svc.LatestLocation(id); ok {
		resp.Location = &loc
	}
	for _, c := range model.Classes {
		if rec, ok := h.svc.Latest(id, c); ok {
			resp.Latest[c] = rec
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) getLocation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["imei"]
	if !h.svc.IsRegistered(id) {
		writeError(w, http.StatusNotFound, store.ErrUnknownDevice)
		return
	}

	loc, ok := h.svc.LatestLocation(id)
	if !ok {
		writeJSON(w, http.StatusOK, locationResponse{})
		return
	}
	writeJSON(w, http.StatusOK, locationResponse{Success: true, Lat: &loc.Lat, Lon: &loc.Lon})
}

func (h *handler) listLocations(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	locs, err := h.svc.Locations(mux.Vars(r)["imei"], limit)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Location{"locations": locs})
}

func (h *handler) listRecords(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	class, err := model.ParseClass(vars["class"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	recs, err := h.svc.History(vars["imei"], class, limit)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Record{"records": recs})
}

func (h *handler) sendCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cmd, err := h.svc.PublishCommand(r.Context(), mux.Vars(r)["imei"], req.Kind, req.Value)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, commandResponse{Success: true, CommandResult: cmd})
	case errors.Is(err, service.ErrUnknownCommand), errors.Is(err, service.ErrInvalidCommandValue):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrDeviceNotConnected):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusBadGateway, err)
	}
}

// parseLimit reads ?limit=N. Absent means everything retained.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
		return 0, false
	}
	return n, true
}
