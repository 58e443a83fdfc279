// internal/entitlement/gate.go

// Package entitlement decides whether a caller gets a full or a trial-limited result.
//
// The trial limit is a soft gate for anonymous callers, not access control: the counter
// lives with the client (or behind a client-held guest token) and resetting it is
// accepted. Authenticated callers are always entitled to full results.
package entitlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Feature names a trial-gated capability. Each feature has its own counter.
type Feature string

const (
	FeatureChat  Feature = "chat"
	FeatureTarot Feature = "tarot"
)

// Access is the outcome of a classification.
type Access string

const (
	Full         Access = "full"
	TrialLimited Access = "trial_limited"
)

// Caller identifies who is asking. UserID is uuid.Nil for anonymous callers.
type Caller struct {
	UserID uuid.UUID

	// GuestToken is the anonymous handle the client holds (cookie), if any.
	GuestToken string

	// ReportedUses is the number of prior free uses the client says it has made.
	ReportedUses int
}

// Anonymous builds a caller with no account.
func Anonymous(guestToken string, reportedUses int) Caller {
	return Caller{GuestToken: guestToken, ReportedUses: reportedUses}
}

// Authenticated builds a caller for a signed-in user.
func Authenticated(userID uuid.UUID) Caller {
	return Caller{UserID: userID}
}

// IsAuthenticated reports whether the caller has an account identity.
func (c Caller) IsAuthenticated() bool {
	return c.UserID != uuid.Nil
}

// Owner returns a pointer to the caller's user id, or nil for anonymous callers.
func (c Caller) Owner() *uuid.UUID {
	if !c.IsAuthenticated() {
		return nil
	}
	id := c.UserID
	return &id
}

// UsageCounter records one anonymous use of a feature and returns how many uses
// preceded it.
type UsageCounter interface {
	Increment(ctx context.Context, caller Caller, feature Feature) (prior int, err error)
}

// Decision is the gate's verdict. Uses is the caller's use count including this one
// (0 for authenticated callers, who are not counted).
type Decision struct {
	Access Access `json:"access"`
	Uses   int    `json:"trial_uses"`
}

// Gate classifies callers against a UsageCounter.
type Gate struct {
	counter UsageCounter
	logger  *logrus.Logger
}

func NewGate(counter UsageCounter, logger *logrus.Logger) *Gate {
	return &Gate{counter: counter, logger: logger}
}

// Classify returns Full for authenticated callers. Anonymous callers get Full on their
// first use of a feature and TrialLimited on every later use. A failing counter does not
// fail the request; the client-reported count is used instead.
func (g *Gate) Classify(ctx context.Context, caller Caller, feature Feature) (Decision, error) {
	if caller.IsAuthenticated() {
		return Decision{Access: Full}, nil
	}

	prior, err := g.counter.Increment(ctx, caller, feature)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Decision{}, ctxErr
		}
		g.logger.WithFields(logrus.Fields{
			"feature": feature,
			"error":   err,
		}).Warn("usage counter failed, falling back to client-reported uses")
		prior = max(caller.ReportedUses, 0)
	}

	d := Decision{Access: Full, Uses: prior + 1}
	if prior > 0 {
		d.Access = TrialLimited
	}
	return d, nil
}
