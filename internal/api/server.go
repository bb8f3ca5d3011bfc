// Package api provides the HTTP API for playing games.
// Game endpoints are public. Listing every live game requires the admin
// bearer token.
package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/talgya/nation-sim/internal/engine"
	"github.com/talgya/nation-sim/internal/events"
	"github.com/talgya/nation-sim/internal/persistence"
	"github.com/talgya/nation-sim/internal/scoring"
	"github.com/talgya/nation-sim/internal/store"
	"github.com/talgya/nation-sim/internal/tuning"
)

// Server serves games over HTTP.
type Server struct {
	Registry      *store.Registry
	Journal       *persistence.DB // nil disables the stats endpoint
	Tuning        tuning.Tuning
	CORSOrigins   []string // "*" allows any origin
	AdminKey      string   // Bearer token for admin endpoints. Empty = disabled.
	CreateLimiter *RateLimiter
}

// Handler returns the routed API with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	create := s.handleCreateGame
	if s.CreateLimiter != nil {
		create = RateLimitMiddleware(s.CreateLimiter, create)
	}

	mux.HandleFunc("POST /api/v1/games", create)
	mux.HandleFunc("GET /api/v1/games/{id}", s.handleGetGame)
	mux.HandleFunc("POST /api/v1/games/{id}/turn", s.handleTurn)
	mux.HandleFunc("DELETE /api/v1/games/{id}", s.handleDeleteGame)
	mux.HandleFunc("GET /api/v1/games/{id}/stats", s.handleStats)
	mux.HandleFunc("GET /api/v1/games/{id}/export", s.handleExport)
	mux.HandleFunc("GET /api/v1/events/catalog", s.handleCatalog)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Admin.
	mux.HandleFunc("GET /api/v1/games", s.adminOnly(s.handleListGames))

	return corsMiddleware(s.CORSOrigins, mux)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowAny := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAny = true
		}
		if o != "" {
			allowed[o] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAny || allowed[origin]) {
			if allowAny {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, ErrForbidden, "admin endpoints disabled (no NATIONSIM_ADMIN_KEY set)")
			return
		}
		if !s.checkBearerToken(r) {
			writeError(w, http.StatusUnauthorized, ErrUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

type createGameRequest struct {
	PlayerName string `json:"player_name"`
	Difficulty string `json:"difficulty"`
	Seed       *int64 `json:"seed"`
}

type turnRequest struct {
	Policies json.RawMessage `json:"policies"`
}

// GameView is the current state of a game. State and Scores are absent
// before the first turn.
type GameView struct {
	GameID     string             `json:"game_id"`
	Seed       int64              `json:"seed"`
	Difficulty events.Difficulty  `json:"difficulty"`
	Turn       int                `json:"turn"`
	MaxTurns   int                `json:"max_turns"`
	IsFinished bool               `json:"is_finished"`
	State      *engine.TurnState  `json:"state"`
	History    engine.HistoryData `json:"history"`
	Scores     *scoring.Scores    `json:"scores"`
	Policies   engine.PolicySet   `json:"policies"`
}

// handleCreateGame starts a game and plays its first turn with the default
// policies so there is data to show.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeBody(w, r, createGameSchema, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrBadRequest, err.Error())
		return
	}

	g, err := s.Registry.Create(s.Tuning.EngineConfig(req.Seed, req.Difficulty))
	if err != nil {
		writeFailure(w, err)
		return
	}
	res, err := s.Registry.Advance(g.ID(), engine.DefaultPolicies())
	if err != nil {
		writeFailure(w, err)
		return
	}
	if req.PlayerName != "" {
		slog.Info("player joined", "game_id", g.ID(), "player", req.PlayerName)
	}
	writeJSON(w, res)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	var view GameView
	err := s.Registry.View(r.PathValue("id"), func(g *engine.Game) error {
		view = GameView{
			GameID:     g.ID(),
			Seed:       g.Seed(),
			Difficulty: g.Difficulty(),
			Turn:       g.Turn(),
			MaxTurns:   g.MaxTurns(),
			IsFinished: g.IsFinished(),
			History:    g.History(),
			Policies:   g.Policies(),
		}
		if st, ok := g.Snapshot(); ok {
			view.State = &st
		}
		if sc, ok := g.Scores(); ok {
			view.Scores = &sc
		}
		return nil
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decodeBody(w, r, turnSchema, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrBadRequest, err.Error())
		return
	}

	// Fields left out of the request keep their default values.
	policies := engine.DefaultPolicies()
	if err := json.Unmarshal(req.Policies, &policies); err != nil {
		writeError(w, http.StatusBadRequest, ErrBadRequest, err.Error())
		return
	}
	if err := policies.Validate(); err != nil {
		writeFailure(w, err)
		return
	}

	res, err := s.Registry.Advance(r.PathValue("id"), policies)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.Registry.Delete(r.PathValue("id")); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

// handleStats returns the journaled game, its turns and its recent events.
// Query params: from, to (turn numbers, inclusive), limit, events (default 20).
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.Registry.Get(id); err != nil {
		writeFailure(w, err)
		return
	}
	if s.Journal == nil {
		writeError(w, http.StatusServiceUnavailable, ErrJournalDisabled, "turn journal is disabled")
		return
	}

	q := r.URL.Query()
	from, err1 := intParam(q.Get("from"), 1)
	to, err2 := intParam(q.Get("to"), 0)
	limit, err3 := intParam(q.Get("limit"), 0)
	recent, err4 := intParam(q.Get("events"), 20)
	for _, err := range []error{err1, err2, err3, err4} {
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrBadRequest, err.Error())
			return
		}
	}

	// The game row is missing if recording it failed at create time.
	var game *persistence.GameRow
	row, err := s.Journal.Game(id)
	switch {
	case err == nil:
		game = &row
	case !errors.Is(err, sql.ErrNoRows):
		writeFailure(w, fmt.Errorf("load game: %w", err))
		return
	}

	turns, err := s.Journal.LoadTurnStats(id, from, to, limit)
	if err != nil {
		writeFailure(w, fmt.Errorf("load turn stats: %w", err))
		return
	}
	counts, err := s.Journal.EventCounts(id)
	if err != nil {
		writeFailure(w, fmt.Errorf("load event counts: %w", err))
		return
	}
	evs, err := s.Journal.LoadTurnEvents(id, recent)
	if err != nil {
		writeFailure(w, fmt.Errorf("load turn events: %w", err))
		return
	}
	if turns == nil {
		turns = []persistence.TurnStat{}
	}
	if evs == nil {
		evs = []persistence.TurnEvent{}
	}

	writeJSON(w, map[string]any{
		"game_id":       id,
		"game":          game,
		"turns":         turns,
		"recent_events": evs,
		"event_counts":  counts,
	})
}

// handleExport downloads the game as a zstd-compressed replay log.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var buf bytes.Buffer
	if err := s.Registry.Export(id, &buf); err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".jsonl.zst"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("export write failed", "game_id", id, "error", err)
	}
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, events.Catalog())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status": "ok",
		"games":  s.Registry.Len(),
	})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	ids := s.Registry.List()
	out := make([]engine.Summary, 0, len(ids))
	for _, id := range ids {
		// Games evicted between List and View are skipped.
		_ = s.Registry.View(id, func(g *engine.Game) error {
			out = append(out, g.Summary())
			return nil
		})
	}
	writeJSON(w, out)
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
