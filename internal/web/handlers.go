package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/banboard/internal/cache"
	"github.com/JonMunkholm/banboard/internal/web/templates"
	"github.com/cespare/xxhash/v2"
)

// handleDashboard renders the search page. When the snapshot is already
// fresh its states are used to disable empty dropdown entries; the page never
// triggers a fetch itself.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := templates.DashboardParams{Title: s.cfg.Server.Title}

	if st, err := s.records.Status(ctx); err == nil && st.Fresh {
		if records, err := s.records.GetCurrent(ctx); err == nil {
			params.Available = make(map[string]bool)
			for _, rec := range records {
				if state := rec["State"]; state != "" {
					params.Available[state] = true
				}
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(params).Render(ctx, w); err != nil {
		loggerFor(r).Error("render dashboard", "error", err)
	}
}

// handleData serves the current records as a JSON array. The body hash is
// used as a strong ETag so polling clients get 304 until the sheet changes.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	records, err := s.records.GetCurrent(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	body, err := json.Marshal(records)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("encode records: %w", err), http.StatusInternalServerError)
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// etagMatches implements the weak comparison used by If-None-Match.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// handleSupplemental passes the supplemental document through unchanged.
func (s *Server) handleSupplemental(w http.ResponseWriter, r *http.Request) {
	data, err := s.supplemental.Get(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// RefreshResponse is returned by POST /api/refresh.
type RefreshResponse struct {
	Records     int          `json:"records"`
	RefreshedAt time.Time    `json:"refreshed_at"`
	Status      cache.Status `json:"status"`
}

// handleRefresh forces a fetch regardless of snapshot age.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := s.records.Refresh(ctx)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := RefreshResponse{Records: len(records), RefreshedAt: time.Now().UTC()}
	if st, err := s.records.Status(ctx); err == nil {
		resp.Status = st
	}

	loggerFor(r).Info("forced refresh", "records", len(records))
	writeJSON(w, r, http.StatusOK, resp)
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status   string       `json:"status"`
	Snapshot cache.Status `json:"snapshot"`
}

// handleHealth reports snapshot freshness. A stale or missing snapshot is
// still healthy since the next /data request refreshes it; only an
// unreadable store is reported as unavailable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st, err := s.records.Status(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}

	state := "ok"
	switch {
	case !st.Exists:
		state = "empty"
	case !st.Fresh:
		state = "stale"
	}
	writeJSON(w, r, http.StatusOK, HealthResponse{Status: state, Snapshot: st})
}
