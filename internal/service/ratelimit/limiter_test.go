package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBurstThenDeny(t *testing.T) {
	l := New(Rule{RPS: 0.001, Burst: 2})
	assert.True(t, l.Allow("binance"))
	assert.True(t, l.Allow("binance"))
	assert.False(t, l.Allow("binance"))
	// independent bucket per key
	assert.True(t, l.Allow("bybit"))
}

func TestLimiterDisabled(t *testing.T) {
	l := New(Rule{})
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("any"))
	}
}

func TestLimiterRuleOverride(t *testing.T) {
	l := New(Rule{})
	l.SetRule("okx", Rule{RPS: 0.001, Burst: 1})
	assert.True(t, l.Allow("okx"))
	assert.False(t, l.Allow("okx"))
	assert.True(t, l.Allow("coinbase"))
}
