package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maheshrc27/igscheduler/internal/models"
)

// RetryPolicy bounds the readiness poll of a media container. A Multiplier
// above 1 grows the delay exponentially between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Multiplier  float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 10, Delay: 5 * time.Second, Multiplier: 1}
}

// withDefaults fills in MaxAttempts when it is unset and keeps the rest.
func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultRetryPolicy().MaxAttempts
	}
	return p
}

// TotalDelay is the time slept between polls when every attempt is used.
func (p RetryPolicy) TotalDelay() time.Duration {
	p = p.withDefaults()
	var total time.Duration
	for attempt := 0; attempt < p.MaxAttempts-1; attempt++ {
		total += p.delay(attempt)
	}
	return total
}

// fixedGraphRequests counts the Graph calls of one publish besides the polls:
// the quota check, a full carousel with its parent, and the commit.
const fixedGraphRequests = 1 + models.MaxCarouselItems + 1 + 1

// WorstCaseAttempt bounds how long one publish attempt can run when each Graph
// request takes the whole httpTimeout.
func WorstCaseAttempt(policy RetryPolicy, httpTimeout time.Duration) time.Duration {
	policy = policy.withDefaults()
	requests := fixedGraphRequests + policy.MaxAttempts
	return time.Duration(requests)*httpTimeout + policy.TotalDelay()
}

// CheckClaimTimeout rejects a claim timeout the sweep could reach while an
// attempt is still running.
func CheckClaimTimeout(claimTimeout time.Duration, policy RetryPolicy, httpTimeout time.Duration) error {
	if httpTimeout <= 0 {
		return errors.New("an HTTP timeout is required to bound publish attempts")
	}
	worst := WorstCaseAttempt(policy, httpTimeout)
	if claimTimeout <= worst {
		return fmt.Errorf("claim timeout %s must exceed the worst-case publish attempt of %s", claimTimeout, worst)
	}
	return nil
}

// delay returns the wait after the given zero-based attempt.
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.Delay
	if p.Multiplier > 1 {
		for i := 0; i < attempt; i++ {
			d = time.Duration(float64(d) * p.Multiplier)
		}
	}
	return d
}

// sleep waits for the delay of attempt or until ctx is done.
func (p RetryPolicy) sleep(ctx context.Context, attempt int) error {
	d := p.delay(attempt)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
