package webd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/types/fix"
	"github.com/tidwall/gjson"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Sessions  int                     `json:"sessions"`
	Config    *params.WebDaemonConfig `json:"config"`
	WSOpen    bool                    `json:"ws_open"`
	WSConns   int                     `json:"ws_conns"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Sessions:  s.registry.Len(),
		WSOpen:    !s.melodyInstance.IsClosed(),
		WSConns:   s.melodyInstance.Len(),
		Config:    s.Config,
	}
	j, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal status", "error", err)
		http.Error(w, "Failed to marshal status", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(j); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

func getRequestDeviceID(r *http.Request) conceptual.DeviceID {
	return conceptual.SanitizeDeviceID(mux.Vars(r)["device"])
}

func (s *WebDaemon) handleGetDeviceForRequest(w http.ResponseWriter, r *http.Request) (conceptual.DeviceID, bool) {
	device := getRequestDeviceID(r)
	if device.Empty() {
		s.logger.Warn("Missing device", "url", r.URL)
		http.Error(w, "Missing device", http.StatusBadRequest)
		return "", false
	}
	return device, true
}

func setContentTypeJSONStream(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/x-ndjson")
}

// handleFixes runs the posted fixes through the device's filter, in order.
// The body may be a single fix, or lines of fixes, GeoJSON features or NMEA sentences.
// It responds with one smoothed fix per raw fix, as NDJSON, or as
// GeoJSON features when ?format=geojson.
// Nothing is applied unless the whole body decodes.
func (s *WebDaemon) handleFixes(w http.ResponseWriter, r *http.Request) {
	device, ok := s.handleGetDeviceForRequest(w, r)
	if !ok {
		return
	}
	if r.Body == nil {
		http.Error(w, "Please send a request body", http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.Config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// A body that is one JSON value, pretty-printed or not, is read as one line.
	if gjson.ValidBytes(body) {
		compact := &bytes.Buffer{}
		if err := json.Compact(compact, body); err == nil {
			body = compact.Bytes()
		}
	}

	var raws []fix.RawFix
	err = fix.NewDecoder().Scan(bytes.NewReader(body), func(raw fix.RawFix) error {
		raws = append(raws, raw)
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to decode fixes", "device", device, "error", err)
		http.Error(w, "Failed to decode: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if len(raws) == 0 {
		http.Error(w, "No fixes", http.StatusUnprocessableEntity)
		return
	}

	geojson := r.URL.Query().Get("format") == "geojson"
	setContentTypeJSONStream(w)
	enc := json.NewEncoder(w)
	for _, raw := range raws {
		out, err := s.registry.Update(device, raw)
		if err != nil {
			s.logger.Error("Failed to update session", "device", device, "error", err)
			http.Error(w, "Failed to update session", http.StatusInternalServerError)
			return
		}
		var v any = out
		if geojson {
			v = out.ToFeature(device.String())
		}
		if err := enc.Encode(v); err != nil {
			s.logger.Warn("Failed to write response", "error", err)
			return
		}
	}
	s.logger.Debug("Smoothed fixes", "device", device, "count", len(raws))
}

// handleReset forces the device's filter to re-acquire on its next fix.
// Resetting a device without a session is not an error.
func (s *WebDaemon) handleReset(w http.ResponseWriter, r *http.Request) {
	device, ok := s.handleGetDeviceForRequest(w, r)
	if !ok {
		return
	}
	s.registry.Reset(device)
	w.WriteHeader(http.StatusNoContent)
}

func (s *WebDaemon) handleLast(w http.ResponseWriter, r *http.Request) {
	device, ok := s.handleGetDeviceForRequest(w, r)
	if !ok {
		return
	}
	last, ok := s.registry.Last(device)
	if !ok {
		http.Error(w, "No fix for device", http.StatusNotFound)
		return
	}
	if err := json.NewEncoder(w).Encode(last); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

func (s *WebDaemon) handleLasts(w http.ResponseWriter, r *http.Request) {
	if err := json.NewEncoder(w).Encode(s.registry.Lasts()); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}
