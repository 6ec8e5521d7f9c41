package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowExhaustsBudget(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 10; i++ {
		allowed, _ := rl.Allow("u1", "send_message")
		assert.True(t, allowed, "request %d should be within budget", i+1)
	}

	allowed, wait := rl.Allow("u1", "send_message")
	assert.False(t, allowed)
	assert.Greater(t, wait, time.Duration(0))
}

func TestAllowKeepsUsersAndActionsIndependent(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 5; i++ {
		allowed, _ := rl.Allow("u1", "create_conversation")
		assert.True(t, allowed)
	}
	allowed, _ := rl.Allow("u1", "create_conversation")
	assert.False(t, allowed)

	// Another user and another action still have full budgets.
	allowed, _ = rl.Allow("u2", "create_conversation")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("u1", "send_message")
	assert.True(t, allowed)
}

func TestTokenBucketRefills(t *testing.T) {
	tb := NewTokenBucket(1, 1, 10*time.Millisecond)

	allowed, _ := tb.Allow()
	assert.True(t, allowed)
	allowed, _ = tb.Allow()
	assert.False(t, allowed)

	time.Sleep(15 * time.Millisecond)
	allowed, _ = tb.Allow()
	assert.True(t, allowed)
}

func TestCleanupConcurrentWithAllow(t *testing.T) {
	rl := NewRateLimiter()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			rl.Allow("u1", "send_message")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			rl.Cleanup()
		}
	}()
	wg.Wait()
}
