/*
Package limiter provides rate limiting for client message traffic.

It uses the Token Bucket algorithm (rate.Limiter) to bound how fast a single
session may submit frames, so one flooding client cannot starve the command
router or the registries.
*/
package limiter

import (
	"golang.org/x/time/rate"
)

// MessageLimiter bounds the inbound frame rate of one session.
type MessageLimiter struct {
	limiter *rate.Limiter

	// strikes counts consecutive rejected frames. It resets on every
	// allowed frame and is used to decide when a flooding session should be
	// dropped instead of warned.
	strikes int

	// maxStrikes is the number of consecutive rejections tolerated before
	// Exhausted reports true.
	maxStrikes int
}

// NewMessageLimiter creates a limiter allowing r frames per second with a
// burst capacity of b. maxStrikes consecutive rejected frames mark the
// limiter as exhausted.
func NewMessageLimiter(r float64, b, maxStrikes int) *MessageLimiter {
	return &MessageLimiter{
		limiter:    rate.NewLimiter(rate.Limit(r), b),
		maxStrikes: maxStrikes,
	}
}

// Allow reports whether one more inbound frame may be processed now.
func (m *MessageLimiter) Allow() bool {
	if m.limiter.Allow() {
		m.strikes = 0
		return true
	}
	m.strikes++
	return false
}

// Exhausted reports whether the session kept flooding past the tolerated
// number of consecutive rejections and should be disconnected.
func (m *MessageLimiter) Exhausted() bool {
	return m.strikes >= m.maxStrikes
}
