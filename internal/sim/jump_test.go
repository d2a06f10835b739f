package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJumpProcess_NeverFiresAtZeroIntensity(t *testing.T) {
	j := NewJumpProcess(JumpParams{Intensity: 0, Mean: 0, Std: 0.2}, 1.0/252)
	rng := NewRand(1)
	for i := 0; i < 1000; i++ {
		mult, ok := j.MaybeJump(rng)
		assert.False(t, ok)
		assert.Equal(t, 1.0, mult)
	}
}

func TestJumpProcess_AlwaysFiresAtProbabilityOne(t *testing.T) {
	j := NewJumpProcess(JumpParams{Intensity: 252, Mean: 0, Std: 0.2}, 1.0/252)
	rng := NewRand(1)
	for i := 0; i < 100; i++ {
		mult, ok := j.MaybeJump(rng)
		assert.True(t, ok)
		assert.Greater(t, mult, 0.0)
	}
}

func TestJumpProcess_ClampsLambdaDtAboveOne(t *testing.T) {
	j := NewJumpProcess(JumpParams{Intensity: 500, Mean: 0, Std: 0.2}, 1.0/252)
	assert.True(t, j.Clamped())

	j = NewJumpProcess(JumpParams{Intensity: 1, Mean: 0, Std: 0.2}, 1.0/252)
	assert.False(t, j.Clamped())
}

func TestJumpProcess_ZeroStdIsPureMeanJump(t *testing.T) {
	j := NewJumpProcess(JumpParams{Intensity: 252, Mean: 0.5, Std: 0}, 1.0/252)
	rng := NewRand(3)
	mult, ok := j.MaybeJump(rng)
	assert.True(t, ok)
	assert.InDelta(t, 1.6487212707001282, mult, 1e-12) // exp(0.5)
}
