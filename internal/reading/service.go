// internal/reading/service.go

// Package reading composes tarot readings and oracle chats, answers follow-up
// questions about them and serves the caller's history.
package reading

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/entitlement"
	"github.com/jason-s-yu/oracle/internal/interpreter"
	"github.com/jason-s-yu/oracle/internal/models"
	"github.com/jason-s-yu/oracle/internal/tarot"
	"github.com/sirupsen/logrus"
)

// DefaultSettleTimeout bounds a consultation once it has outlived its caller.
const DefaultSettleTimeout = 3 * time.Minute

// Question length limits, counted in characters after trimming.
const (
	MaxTarotQuestion = 200
	MaxChatQuestion  = 500
)

// Store persists readings and chat history for authenticated owners.
type Store interface {
	SaveTarotReading(ctx context.Context, r *models.TarotReading) error
	SaveFortune(ctx context.Context, f *models.Fortune) error
	ListFortunes(ctx context.Context, owner uuid.UUID, limit, offset int) ([]models.Fortune, int, error)
	ListTarotReadings(ctx context.Context, owner uuid.UUID, limit, offset int) ([]models.TarotReading, int, error)
	GetFortune(ctx context.Context, owner, id uuid.UUID) (*models.Fortune, error)
	GetTarotReading(ctx context.Context, owner, id uuid.UUID) (*models.TarotReading, error)
	DeleteFortune(ctx context.Context, owner, id uuid.UUID) error
	DeleteTarotReading(ctx context.Context, owner, id uuid.UUID) error
}

// Interpreter produces the free text of every consultation.
type Interpreter interface {
	InterpretTarot(ctx context.Context, req interpreter.TarotRequest, onDelta interpreter.DeltaFunc) (string, error)
	InterpretChat(ctx context.Context, req interpreter.ChatRequest, onDelta interpreter.DeltaFunc) (string, error)
	AnswerFollowUp(ctx context.Context, req interpreter.FollowUpRequest) (string, error)
}

// ProfileSource loads the stored birth profile of a user.
type ProfileSource interface {
	Profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// Deps are the collaborators of a Service. Drawer may be nil to use the global source.
type Deps struct {
	Catalog     *tarot.Catalog
	Drawer      *tarot.Drawer
	Interpreter Interpreter
	Gate        *entitlement.Gate
	Store       Store
	Profiles    ProfileSource
	Logger      *logrus.Logger

	// SettleTimeout caps the interpretation and save of a consultation whose caller
	// has gone away. Zero means DefaultSettleTimeout.
	SettleTimeout time.Duration
}

type Service struct {
	catalog  *tarot.Catalog
	drawer   *tarot.Drawer
	oracle   Interpreter
	gate     *entitlement.Gate
	store    Store
	profiles ProfileSource
	logger   *logrus.Logger
	settle   time.Duration
}

func NewService(d Deps) *Service {
	if d.SettleTimeout <= 0 {
		d.SettleTimeout = DefaultSettleTimeout
	}
	return &Service{
		catalog:  d.Catalog,
		drawer:   d.Drawer,
		oracle:   d.Interpreter,
		gate:     d.Gate,
		store:    d.Store,
		profiles: d.Profiles,
		logger:   d.Logger,
		settle:   d.SettleTimeout,
	}
}

// detach returns a context that outlives the caller's, so an interpretation already
// requested is finished and stored even when nobody is left to receive it.
func (s *Service) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.settle)
}

// deltaRelay forwards deltas until the first delivery failure and drops the rest, so a
// vanished stream reader does not abort the consultation. The failure is kept in err.
type deltaRelay struct {
	next interpreter.DeltaFunc
	err  error
}

func relayDeltas(next interpreter.DeltaFunc) *deltaRelay {
	return &deltaRelay{next: next}
}

// fn is the DeltaFunc to hand to the interpreter; nil when nobody streams.
func (r *deltaRelay) fn() interpreter.DeltaFunc {
	if r.next == nil {
		return nil
	}
	return func(text string) error {
		if r.err != nil {
			return nil
		}
		if err := r.next(text); err != nil {
			r.err = err
		}
		return nil
	}
}

// ValidateQuestion trims q and checks it is non-empty and at most limit characters.
func ValidateQuestion(q string, limit int) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", apperrors.Invalid("question", "Please enter your question")
	}
	if utf8.RuneCountInString(q) > limit {
		return "", apperrors.Invalid("question", fmt.Sprintf("Question cannot exceed %d characters", limit))
	}
	return q, nil
}

func requireOwner(caller entitlement.Caller) (uuid.UUID, error) {
	if !caller.IsAuthenticated() {
		return uuid.Nil, apperrors.New(apperrors.ErrUnauthorized, "Unauthorized. Please sign in.")
	}
	return caller.UserID, nil
}
