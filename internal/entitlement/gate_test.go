// internal/entitlement/gate_test.go
package entitlement

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCounter is an in-process UsageCounter keyed by guest token.
type memCounter struct {
	counts map[string]int
	err    error
}

func newMemCounter() *memCounter {
	return &memCounter{counts: make(map[string]int)}
}

func (m *memCounter) Increment(_ context.Context, caller Caller, feature Feature) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	key := string(feature) + ":" + caller.GuestToken
	prior := m.counts[key]
	m.counts[key] = prior + 1
	return prior, nil
}

func newTestGate(counter UsageCounter) (*Gate, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return NewGate(counter, logger), hook
}

func TestAuthenticatedCallerIsAlwaysFull(t *testing.T) {
	counter := newMemCounter()
	gate, _ := newTestGate(counter)
	caller := Authenticated(uuid.New())

	for i := 0; i < 3; i++ {
		d, err := gate.Classify(context.Background(), caller, FeatureTarot)
		require.NoError(t, err)
		assert.Equal(t, Full, d.Access)
	}
	assert.Empty(t, counter.counts, "authenticated callers must not be counted")
}

func TestAnonymousFirstUseFullThenTrialLimited(t *testing.T) {
	gate, _ := newTestGate(newMemCounter())
	caller := Anonymous("guest-1", 0)

	first, err := gate.Classify(context.Background(), caller, FeatureTarot)
	require.NoError(t, err)
	assert.Equal(t, Decision{Access: Full, Uses: 1}, first)

	second, err := gate.Classify(context.Background(), caller, FeatureTarot)
	require.NoError(t, err)
	assert.Equal(t, Decision{Access: TrialLimited, Uses: 2}, second)

	// Features are counted independently.
	chat, err := gate.Classify(context.Background(), caller, FeatureChat)
	require.NoError(t, err)
	assert.Equal(t, Full, chat.Access)
}

func TestClientCounterUsesReportedCount(t *testing.T) {
	gate, _ := newTestGate(ClientCounter{})

	d, err := gate.Classify(context.Background(), Anonymous("", 0), FeatureChat)
	require.NoError(t, err)
	assert.Equal(t, Decision{Access: Full, Uses: 1}, d)

	d, err = gate.Classify(context.Background(), Anonymous("", 1), FeatureChat)
	require.NoError(t, err)
	assert.Equal(t, Decision{Access: TrialLimited, Uses: 2}, d)

	// A client that resets its storage gets a fresh trial; this is accepted.
	d, err = gate.Classify(context.Background(), Anonymous("", -4), FeatureChat)
	require.NoError(t, err)
	assert.Equal(t, Full, d.Access)
}

func TestCounterFailureFallsBackToReportedUses(t *testing.T) {
	counter := newMemCounter()
	counter.err = errors.New("redis: connection refused")
	gate, hook := newTestGate(counter)

	d, err := gate.Classify(context.Background(), Anonymous("guest", 3), FeatureTarot)
	require.NoError(t, err)
	assert.Equal(t, Decision{Access: TrialLimited, Uses: 4}, d)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestCounterFailureWithCancelledContext(t *testing.T) {
	counter := newMemCounter()
	counter.err = context.Canceled
	gate, _ := newTestGate(counter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gate.Classify(ctx, Anonymous("guest", 0), FeatureTarot)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallerOwner(t *testing.T) {
	assert.Nil(t, Anonymous("x", 0).Owner())

	id := uuid.New()
	owner := Authenticated(id).Owner()
	require.NotNil(t, owner)
	assert.Equal(t, id, *owner)
}
