// internal/tarot/spread_test.go
package tarot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredCount(t *testing.T) {
	tests := []struct {
		key  string
		want int
	}{
		{"single", 1},
		{"three-card", 3},
		{"celtic-cross", 10},
		{"unknown-key", 1},
		{"", 1},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiredCount(tt.key))
		})
	}
}

func TestResolveSpreadFallback(t *testing.T) {
	s, ok := ResolveSpread("horseshoe")
	assert.False(t, ok)
	assert.Equal(t, SpreadSingle, s.Key)

	s, ok = ResolveSpread(SpreadThreeCard)
	assert.True(t, ok)
	assert.Equal(t, "Past", s.PositionLabel(1))
	assert.Equal(t, "Future", s.PositionLabel(3))
	assert.Equal(t, "", s.PositionLabel(4))
}

func TestSpreadsOrdered(t *testing.T) {
	all := Spreads()
	assert.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Count(), all[i].Count())
	}
}
