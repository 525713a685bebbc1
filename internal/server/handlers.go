package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lifedesk/lifedesk/internal/auth"
	"github.com/lifedesk/lifedesk/internal/bus"
	"github.com/lifedesk/lifedesk/internal/intent"
	"github.com/lifedesk/lifedesk/internal/metrics"
	"github.com/lifedesk/lifedesk/internal/stream"
	"github.com/lifedesk/lifedesk/internal/turn"
)

// tokenChunkSize is the streamed text granularity, in runes.
const tokenChunkSize = 48

// StatusResponse is returned by GET /api/v1/status.
type StatusResponse struct {
	Version   string               `json:"version"`
	StartedAt time.Time            `json:"startedAt"`
	Uptime    string               `json:"uptime"`
	Session   metrics.SessionStats `json:"session"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Version:   s.version,
		StartedAt: s.startedAt,
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		Session:   s.collector.Snapshot(),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.authSvc.Register(r.Context(), &req)
	switch err {
	case nil:
		writeJSON(w, http.StatusCreated, u)
	case auth.ErrWeakPassword, auth.ErrUserExists:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("register failed")
		writeError(w, http.StatusInternalServerError, "registration failed")
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authSvc.Login(r.Context(), &req)
	switch err {
	case nil:
		writeJSON(w, http.StatusOK, resp)
	case auth.ErrInvalidCredentials:
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		s.log.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, "login failed")
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	}
	if err := s.authSvc.Logout(r.Context(), token); err != nil {
		s.log.Warn().Err(err).Msg("logout failed")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTurn runs one assistant turn and streams the outcome.
// POST /api/v1/assistant/turn
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFrom(r.Context())

	var in turn.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.UserID = u.ID

	if in.Message == "" && in.Decision == nil {
		writeError(w, http.StatusBadRequest, "message or actionDecision required")
		return
	}

	_ = s.events.Publish(bus.TurnStarted(u.ID, classify(&in)))

	res := s.coordinator.Run(r.Context(), &in)
	s.publishOutcome(u.ID, &in, res)

	sw := stream.NewWriter(w)
	if err := writeResult(sw, res); err != nil {
		s.log.Warn().Err(err).Msg("turn stream aborted")
	}
}

// writeResult renders a finished turn as the event sequence a client
// consumes: text as token chunks, then any action or navigation, then the
// terminal done.
func writeResult(sw *stream.Writer, res *turn.Result) error {
	for _, chunk := range chunks(res.Text, tokenChunkSize) {
		if err := sw.Send(stream.Token(chunk)); err != nil {
			return err
		}
	}
	if res.PendingAction != nil {
		if err := sw.Send(stream.Action(res.PendingAction)); err != nil {
			return err
		}
	}
	if res.NavigateTo != "" {
		if err := sw.Send(stream.Navigate(res.NavigateTo)); err != nil {
			return err
		}
	}
	return sw.Send(stream.Done())
}

func (s *Server) publishOutcome(userID string, in *turn.Input, res *turn.Result) {
	switch {
	case res.PendingAction != nil:
		p := res.PendingAction
		module := ""
		if len(res.UsedModules) > 0 {
			module = res.UsedModules[0]
		}
		_ = s.events.Publish(bus.ActionProposed(userID, p.ID, p.ToolName, module))
	case in.Decision != nil:
		_ = s.events.Publish(bus.ActionResolved(userID, in.Decision.ActionID, "", in.Decision.Approved))
	case res.NavigateTo != "":
		_ = s.events.Publish(bus.Navigated(userID, res.NavigateTo))
	}
	_ = s.events.Publish(bus.TurnCompleted(userID, string(res.Intent.Type), res.Text))
}

func classify(in *turn.Input) string {
	if in.Decision != nil {
		return string(intent.TypeAction)
	}
	return "message"
}

// chunks splits s into rune-boundary pieces of at most size runes.
func chunks(s string, size int) []string {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	out := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
