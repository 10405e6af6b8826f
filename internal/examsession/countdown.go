package examsession

import (
	"context"
	"time"
)

// countdownTick is the check interval while an attempt is InProgress with a
// time limit. Remaining time is always recomputed from StartedAt, so a
// missed or delayed tick can never extend an attempt.
const countdownTick = time.Minute

// countdown drives the forced-submit path when a timed attempt runs out.
type countdown struct {
	stop chan struct{}
}

// armCountdownLocked starts the countdown goroutine if the exam has a time
// limit. Caller holds the session mutex.
func (s *Session) armCountdownLocked() {
	if s.def.Exam == nil || s.def.Exam.TimeLimitMinutes == nil {
		return
	}
	if s.countdown != nil {
		return
	}

	cd := &countdown{stop: make(chan struct{})}
	s.countdown = cd
	go s.runCountdown(cd)
}

// stopCountdownLocked cancels any pending ticks. Called on every transition
// out of InProgress and on Close. Caller holds the session mutex.
func (s *Session) stopCountdownLocked() {
	if s.countdown == nil {
		return
	}
	close(s.countdown.stop)
	s.countdown = nil
}

// runCountdown ticks once per interval until the attempt expires or the
// countdown is stopped. Expiry triggers Submit(forced=true); the Submitted
// state guard inside Submit makes a tick that loses the race against a
// manual submit a harmless ErrAlreadyCompleted.
func (s *Session) runCountdown(cd *countdown) {
	ticker := time.NewTicker(countdownTick)
	defer ticker.Stop()

	for {
		select {
		case <-cd.stop:
			return
		case <-ticker.C:
			remaining, limited := s.Remaining()
			if !limited || remaining > 0 {
				continue
			}
			// Submit stops the countdown itself on success; a persistence
			// failure leaves the attempt InProgress and the next tick retries.
			_ = s.Submit(context.Background(), true)
			if s.State() == StateSubmitted {
				return
			}
		}
	}
}
