package algo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeExtendedDeadline_Extends(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(10 * time.Second)
	currentDeadline := created.Add(12 * time.Second)

	ext := ComputeExtendedDeadline(now, currentDeadline, created, 15, nil)

	assert.True(t, ext.ShouldExtend)
	assert.Equal(t, now.Add(15*time.Second), ext.NewDeadline)
}

func TestComputeExtendedDeadline_NeverShortens(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(10 * time.Second)
	// Current deadline is already further out than the candidate.
	currentDeadline := now.Add(30 * time.Second)

	ext := ComputeExtendedDeadline(now, currentDeadline, created, 15, nil)

	assert.False(t, ext.ShouldExtend)
}

func TestComputeExtendedDeadline_RespectsMaxLotDuration(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(50 * time.Second)
	currentDeadline := created.Add(52 * time.Second)
	maxDur := 60

	ext := ComputeExtendedDeadline(now, currentDeadline, created, 15, &maxDur)

	// now+15s = :65, capped to created+60s = :60.
	assert.True(t, ext.ShouldExtend)
	assert.Equal(t, created.Add(60*time.Second), ext.NewDeadline)
}

// L2 Timer idempotence: applying twice with the same now yields the same
// result as once.
func TestComputeExtendedDeadline_Idempotent(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(10 * time.Second)
	currentDeadline := created.Add(12 * time.Second)

	first := ComputeExtendedDeadline(now, currentDeadline, created, 15, nil)
	second := ComputeExtendedDeadline(now, first.NewDeadline, created, 15, nil)

	assert.Equal(t, first.NewDeadline, second.NewDeadline)
	assert.False(t, second.ShouldExtend, "applying again with the same now must not extend further")
}
