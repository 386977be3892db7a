package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPForNextLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int64
	}{
		{1, 100},   // 100 * 1^1.2
		{2, 229},   // floor(100 * 2^1.2)
		{5, 689},   // floor(100 * 5^1.2)
		{10, 1584}, // floor(100 * 10^1.2)
		{0, 100},   // clamped to level 1
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, xpForNextLevel(tt.level), "level %d", tt.level)
	}
}

// The marginal XP cost must grow with level so levelling slows down over time.
func TestXPForNextLevelMonotonic(t *testing.T) {
	prev := int64(0)
	for level := 1; level <= 50; level++ {
		cost := xpForNextLevel(level)
		assert.Greater(t, cost, prev, "level %d", level)
		prev = cost
	}
}
