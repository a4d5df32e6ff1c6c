package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		r := l.Allow("1.2.3.4")
		assert.True(t, r.OK)
		assert.Equal(t, 2-i, r.Remaining)
	}

	r := l.Allow("1.2.3.4")
	assert.False(t, r.OK)
	assert.Equal(t, 0, r.Remaining)
}

func TestKeysAreIndependent(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	assert.True(t, l.Allow("a").OK)
	assert.False(t, l.Allow("a").OK)
	assert.True(t, l.Allow("b").OK)
}

func TestWindowReset(t *testing.T) {
	now := time.Now()
	l := NewLimiter(1, time.Minute)
	l.nowFunc = func() time.Time { return now }

	assert.True(t, l.Allow("a").OK)
	assert.False(t, l.Allow("a").OK)

	now = now.Add(time.Minute + time.Second)
	r := l.Allow("a")
	assert.True(t, r.OK)
	assert.Equal(t, now.Add(time.Minute), r.ResetAt)
}
