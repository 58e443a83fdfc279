// internal/handlers/oracle_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jason-s-yu/oracle/internal/entitlement"
	"github.com/jason-s-yu/oracle/internal/middleware"
	"github.com/jason-s-yu/oracle/internal/models"
	"github.com/jason-s-yu/oracle/internal/reading"
	"github.com/jason-s-yu/oracle/internal/tarot"
)

// OracleSubprotocol must be offered by websocket clients.
const OracleSubprotocol = "oracle"

const wsWriteTimeout = 5 * time.Second

// oracleRequest is one consultation requested over the socket.
type oracleRequest struct {
	Type       string          `json:"type"` // "tarot", "chat" or "ping"
	SpreadType string          `json:"spread_type"`
	Question   string          `json:"question"`
	UserInfo   *models.Profile `json:"user_info"`
	TrialUses  *int            `json:"trial_uses"`
}

// OracleWSHandler streams consultations. For each request the server sends a "cards"
// event (tarot only), any number of "delta" events and then "done" or "error".
func (s *APIServer) OracleWSHandler(w http.ResponseWriter, r *http.Request) {
	// Resolve before the upgrade so a new guest cookie rides on the handshake response.
	caller := s.resolveCaller(w, r)

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{OracleSubprotocol},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.WithError(err).Warn("websocket accept error")
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != OracleSubprotocol {
		c.Close(BadSubprotocolError, "client must speak the oracle subprotocol")
		return
	}

	middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, r.URL.Path)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	err = s.serveOracle(ctx, c, caller)
	middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, err)
	c.Close(websocket.StatusNormalClosure, "")
}

// serveOracle handles requests until the client goes away. A nil return means a
// normal closure.
func (s *APIServer) serveOracle(ctx context.Context, c *websocket.Conn, caller entitlement.Caller) error {
	// Anonymous use counts per consultation type, so later requests on this socket
	// count against the trial even when the counter is client-side.
	sessionUses := map[string]int{}

	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			if err := s.sendWsError(ctx, c, "Only text messages are supported", http.StatusBadRequest); err != nil {
				return err
			}
			continue
		}

		var req oracleRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if err := s.sendWsError(ctx, c, "Invalid JSON format.", http.StatusBadRequest); err != nil {
				return err
			}
			continue
		}

		reqCaller := caller
		if !caller.IsAuthenticated() {
			if uses, ok := sessionUses[req.Type]; ok {
				reqCaller.ReportedUses = uses
			}
			if req.TrialUses != nil {
				reqCaller.ReportedUses = max(*req.TrialUses, 0)
			}
		}

		var decision *entitlement.Decision
		switch req.Type {
		case "tarot":
			decision, err = s.streamTarot(ctx, c, reqCaller, req)
		case "chat":
			decision, err = s.streamChat(ctx, c, reqCaller, req)
		case "ping":
			err = s.sendWsMessage(ctx, c, envelope{"type": "pong"})
		default:
			err = s.sendWsError(ctx, c, fmt.Sprintf("Unknown message type: %s", req.Type), http.StatusBadRequest)
		}
		if err != nil {
			return err
		}
		if decision != nil && !caller.IsAuthenticated() {
			sessionUses[req.Type] = decision.Uses
		}
	}
}

// wsSendError marks a failed write to the client; it ends the session.
type wsSendError struct{ err error }

func (e *wsSendError) Error() string { return e.err.Error() }
func (e *wsSendError) Unwrap() error { return e.err }

func (s *APIServer) streamTarot(ctx context.Context, c *websocket.Conn, caller entitlement.Caller, req oracleRequest) (*entitlement.Decision, error) {
	res, err := s.readings.ComposeStream(ctx, caller, req.SpreadType, req.Question, reading.Hooks{
		OnCards: func(spread tarot.Spread, cards []models.DrawnCard) error {
			return s.sendWsMessage(ctx, c, envelope{
				"type":        "cards",
				"spread_type": spread.Key,
				"spread_name": spread.Name,
				"cards":       cards,
			})
		},
		OnDelta: s.deltaSender(ctx, c),
	})
	if err != nil {
		return nil, s.consultationFailed(ctx, c, err)
	}

	done := tarotPayload(caller, res)
	done["type"] = "done"
	return &res.Decision, s.sendWsMessage(ctx, c, done)
}

func (s *APIServer) streamChat(ctx context.Context, c *websocket.Conn, caller entitlement.Caller, req oracleRequest) (*entitlement.Decision, error) {
	res, err := s.readings.ChatStream(ctx, caller, req.Question, req.UserInfo, s.deltaSender(ctx, c))
	if err != nil {
		return nil, s.consultationFailed(ctx, c, err)
	}

	done := chatPayload(caller, res)
	done["type"] = "done"
	return &res.Decision, s.sendWsMessage(ctx, c, done)
}

func (s *APIServer) deltaSender(ctx context.Context, c *websocket.Conn) func(string) error {
	return func(text string) error {
		return s.sendWsMessage(ctx, c, envelope{"type": "delta", "text": text})
	}
}

// consultationFailed reports err to the client. It returns an error only when the
// client can no longer be reached.
func (s *APIServer) consultationFailed(ctx context.Context, c *websocket.Conn, err error) error {
	var sendErr *wsSendError
	if errors.As(err, &sendErr) {
		return err
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("status", status).Error("streamed consultation failed")
	}
	return s.sendWsError(ctx, c, publicMessage(err, status), status)
}

func (s *APIServer) sendWsMessage(ctx context.Context, c *websocket.Conn, msg envelope) error {
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	if err := wsjson.Write(writeCtx, c, msg); err != nil {
		s.logger.WithError(err).WithField("type", msg["type"]).Debug("websocket write failed")
		return &wsSendError{err: err}
	}
	return nil
}

func (s *APIServer) sendWsError(ctx context.Context, c *websocket.Conn, message string, status int) error {
	return s.sendWsMessage(ctx, c, envelope{
		"type":   "error",
		"error":  message,
		"status": status,
	})
}
