// internal/handlers/api_server.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jason-s-yu/oracle/internal/auth"
	"github.com/jason-s-yu/oracle/internal/middleware"
	"github.com/jason-s-yu/oracle/internal/reading"
	"github.com/jason-s-yu/oracle/internal/tarot"
	"github.com/sirupsen/logrus"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of an APIServer. Health may be nil.
type Deps struct {
	Accounts *auth.Accounts
	Readings *reading.Service
	Catalog  *tarot.Catalog
	Health   Pinger
	Logger   *logrus.Logger

	// SecureCookies marks issued cookies Secure; set it when served over TLS.
	SecureCookies bool
}

// APIServer serves the oracle HTTP API.
type APIServer struct {
	accounts      *auth.Accounts
	readings      *reading.Service
	catalog       *tarot.Catalog
	health        Pinger
	logger        *logrus.Logger
	secureCookies bool
}

func NewAPIServer(d Deps) *APIServer {
	return &APIServer{
		accounts:      d.Accounts,
		readings:      d.Readings,
		catalog:       d.Catalog,
		health:        d.Health,
		logger:        d.Logger,
		secureCookies: d.SecureCookies,
	}
}

// Routes returns the API wrapped in request logging.
func (s *APIServer) Routes() http.Handler {
	mux := http.NewServeMux()

	// accounts
	mux.HandleFunc("POST /auth/register", s.RegisterHandler)
	mux.HandleFunc("POST /auth/login", s.LoginHandler)
	mux.HandleFunc("POST /auth/logout", s.LogoutHandler)
	mux.HandleFunc("GET /auth/me", s.MeHandler)
	mux.HandleFunc("PUT /auth/me", s.UpdateMeHandler)

	// consultations
	mux.HandleFunc("GET /tarot/cards", s.ListCardsHandler)
	mux.HandleFunc("GET /tarot/spreads", s.ListSpreadsHandler)
	mux.HandleFunc("POST /tarot/draw", s.DrawHandler)
	mux.HandleFunc("POST /fortune/chat", s.ChatHandler)
	mux.HandleFunc("GET /oracle/ws", s.OracleWSHandler)

	// history
	mux.HandleFunc("GET /history", s.ListHistoryHandler)
	mux.HandleFunc("DELETE /history", s.DeleteHistoryHandler)
	mux.HandleFunc("POST /history/followup", s.ChatFollowUpHandler)
	mux.HandleFunc("POST /history/tarot-followup", s.TarotFollowUpHandler)

	mux.HandleFunc("GET /healthz", s.HealthHandler)

	return middleware.LogMiddleware(s.logger)(mux)
}

// HealthHandler reports liveness and, when configured, store reachability.
func (s *APIServer) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.logger.WithError(err).Warn("health check failed")
			writeRaw(w, http.StatusServiceUnavailable, envelope{"success": false, "error": "store unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, envelope{"status": "ok"})
}
