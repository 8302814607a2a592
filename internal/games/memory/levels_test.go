package memory

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelTable(t *testing.T) {
	assert.Equal(t, LevelConfig{SequenceLength: 3, SpeedMs: 1000, Opacity: 1.0}, Level(1))
	assert.Equal(t, LevelConfig{SequenceLength: 7, SpeedMs: 600, Opacity: 0.6}, Level(5))
	assert.Equal(t, LevelConfig{SequenceLength: 8, SpeedMs: 500, Opacity: 0.6}, Level(6))
	assert.Equal(t, 15, Level(13).SequenceLength)
	assert.Equal(t, 15, Level(20).SequenceLength)
	assert.Equal(t, Level(1), Level(0))
	assert.Equal(t, Level(1), Level(-4))
}

func TestLevelIsMonotonic(t *testing.T) {
	prev := Level(1)
	for level := 2; level <= 30; level++ {
		cfg := Level(level)
		assert.GreaterOrEqual(t, cfg.SequenceLength, prev.SequenceLength)
		assert.LessOrEqual(t, cfg.SpeedMs, prev.SpeedMs)
		assert.LessOrEqual(t, cfg.Opacity, prev.Opacity)
		prev = cfg
	}
}

func TestGenerateSequenceNeverRepeatsAdjacent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for length := 0; length <= 15; length++ {
		for trial := 0; trial < 200; trial++ {
			seq := GenerateSequence(rng, length)
			require.Len(t, seq, length)
			for i := range seq {
				assert.Contains(t, Palette, seq[i])
				if i > 0 {
					require.NotEqual(t, seq[i-1], seq[i], "adjacent repeat in %v", seq)
				}
			}
		}
	}
}

func TestGenerateSequenceUsesWholePalette(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		for _, id := range GenerateSequence(rng, 5) {
			seen[id] = true
		}
	}
	assert.Len(t, seen, len(Palette))
}
