package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"meme-coin-sniper/internal/aggregator"
	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/storage"
)

// Query defaults and bounds.
const (
	DefaultView     = domain.ViewTrending
	DefaultTopLimit = 20
	MaxTopLimit     = 100
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestID(r),
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusNotFound, "endpoint_not_found", "the requested endpoint does not exist")
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not supported here")
}

func (s *Server) unavailable(w http.ResponseWriter, r *http.Request, what string) {
	s.writeError(w, r, http.StatusServiceUnavailable, "not_configured", what+" is not configured")
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Uptime: time.Since(s.start).Round(time.Second).String()})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{StartedAt: s.start.UTC(), Jobs: []JobInfo{}}
	if s.cfg.Status != nil {
		for _, st := range s.cfg.Status.Stats() {
			info := JobInfo{
				Name:       st.Name,
				Interval:   st.Interval,
				Running:    st.Running,
				Runs:       st.Runs,
				Failures:   st.Failures,
				Skipped:    st.Skipped,
				DurationMs: st.LastDuration.Milliseconds(),
				LastError:  st.LastError,
			}
			if !st.LastStart.IsZero() {
				ts := st.LastStart.UTC()
				info.LastStart = &ts
			}
			resp.Jobs = append(resp.Jobs, info)
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// tokens runs a scan for the requested view.
func (s *Server) tokens(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Scanner == nil {
		s.unavailable(w, r, "scanner")
		return
	}
	req, err := parseRequest(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	res, err := s.cfg.Scanner.Scan(r.Context(), req)
	if err != nil {
		if errors.Is(err, aggregator.ErrUnknownView) {
			s.writeError(w, r, http.StatusBadRequest, "invalid_parameter", err.Error())
			return
		}
		s.logger.Error().Err(err).Str("request_id", requestID(r)).Msg("scan failed")
		s.writeError(w, r, http.StatusInternalServerError, "scan_failed", "scan failed")
		return
	}

	s.writeJSON(w, http.StatusOK, TokensResponse{
		CycleID:   res.CycleID,
		View:      string(req.View),
		Tier:      string(req.Tier),
		Count:     len(res.Tokens),
		Tokens:    NewTokenInfos(res.Tokens),
		Generated: res.FinishedAt.UTC(),
	})
}

func (s *Server) topTokens(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Tokens == nil {
		s.unavailable(w, r, "token store")
		return
	}
	n := DefaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > MaxTopLimit {
			s.writeError(w, r, http.StatusBadRequest, "invalid_parameter", "limit must be an integer between 1 and "+strconv.Itoa(MaxTopLimit))
			return
		}
		n = v
	}

	tokens, err := s.cfg.Tokens.TopByScore(r.Context(), n)
	if err != nil {
		s.logger.Error().Err(err).Msg("top tokens query failed")
		s.writeError(w, r, http.StatusInternalServerError, "store_failed", "token store query failed")
		return
	}
	s.writeJSON(w, http.StatusOK, TokensResponse{
		Count:     len(tokens),
		Tokens:    NewTokenInfos(tokens),
		Generated: time.Now().UTC(),
	})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Tokens == nil {
		s.unavailable(w, r, "token store")
		return
	}
	address := mux.Vars(r)["address"]
	t, err := s.cfg.Tokens.Get(r.Context(), address)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, "token_not_found", "no scored token "+address)
		return
	case err != nil:
		s.logger.Error().Err(err).Str("address", address).Msg("token lookup failed")
		s.writeError(w, r, http.StatusInternalServerError, "store_failed", "token store query failed")
		return
	}
	s.writeJSON(w, http.StatusOK, NewTokenInfo(*t))
}

// alerts runs one co-buy cycle.
func (s *Server) alerts(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Alerts == nil {
		s.unavailable(w, r, "co-buy engine")
		return
	}
	res := s.cfg.Alerts.RunCycle(r.Context())
	s.writeJSON(w, http.StatusOK, AlertsResponse{
		CycleID: res.CycleID,
		Rules: RulesInfo{
			MinBuyers:        res.Rules.MinBuyers,
			MaxLookbackHours: res.Rules.MaxLookbackHours,
			MaxAlerts:        res.Rules.MaxAlerts,
		},
		Wallets: res.Wallets,
		Count:   len(res.Alerts),
		Alerts:  NewAlertInfos(res.Alerts),
		TookMs:  res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
	})
}

// parseRequest reads the /tokens query. max_age accepts a Go duration or
// whole minutes.
func parseRequest(r *http.Request) (aggregator.Request, error) {
	q := r.URL.Query()
	req := aggregator.Request{View: DefaultView, Tier: domain.TierFree}

	if v := strings.ToLower(q.Get("view")); v != "" {
		req.View = domain.View(v)
		if !req.View.IsValid() {
			return req, errors.New("view must be one of new, trending, surge")
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, errors.New("limit must be a non-negative integer")
		}
		req.Limit = n
	}
	if v := q.Get("max_age"); v != "" {
		d, err := parseAge(v)
		if err != nil {
			return req, errors.New("max_age must be a duration like 90m or whole minutes")
		}
		req.MaxAge = d
	}
	if v := q.Get("min_liquidity"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return req, errors.New("min_liquidity must be a non-negative number")
		}
		req.MinLiquidity = f
	}
	if v := strings.ToLower(q.Get("tier")); v != "" {
		req.Tier = domain.Tier(v)
		if req.Tier != domain.TierFree && req.Tier != domain.TierPaid {
			return req, errors.New("tier must be free or paid")
		}
	}
	return req, nil
}

func parseAge(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, errors.New("negative")
		}
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, errors.New("invalid duration")
	}
	return d, nil
}
