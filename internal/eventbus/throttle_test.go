package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutbidThrottle_SuppressesWithinWindow(t *testing.T) {
	th := newOutbidThrottle()
	fakeNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return fakeNow }

	assert.True(t, th.allow(1, 100), "first notice always allowed")
	assert.False(t, th.allow(1, 100), "second notice within window is suppressed")

	fakeNow = fakeNow.Add(th.window + time.Millisecond)
	assert.True(t, th.allow(1, 100), "notice allowed again once the window elapses")
}

func TestOutbidThrottle_IndependentPerKey(t *testing.T) {
	th := newOutbidThrottle()
	fakeNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return fakeNow }

	assert.True(t, th.allow(1, 100))
	assert.True(t, th.allow(2, 100), "different roster is not throttled by roster 1's notice")
	assert.True(t, th.allow(1, 200), "different lot is not throttled by lot 100's notice")
}
