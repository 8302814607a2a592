package memory

import (
	"math/rand"
)

// LevelConfig describes how a level's sequence is shown.
type LevelConfig struct {
	SequenceLength int     `json:"sequenceLength"`
	SpeedMs        int     `json:"speed"`
	Opacity        float64 `json:"opacity"`
}

const (
	maxSequenceLength = 15
	fastSpeedMs       = 500
	minOpacity        = 0.6
)

var levelTable = [...]LevelConfig{
	{SequenceLength: 3, SpeedMs: 1000, Opacity: 1.0},
	{SequenceLength: 4, SpeedMs: 900, Opacity: 0.9},
	{SequenceLength: 5, SpeedMs: 800, Opacity: 0.8},
	{SequenceLength: 6, SpeedMs: 700, Opacity: 0.7},
	{SequenceLength: 7, SpeedMs: 600, Opacity: 0.6},
}

// Level returns the difficulty for a level. Levels below 1 are treated as 1;
// beyond the table the sequence grows by one per level up to 15.
func Level(level int) LevelConfig {
	if level < 1 {
		level = 1
	}
	if level <= len(levelTable) {
		return levelTable[level-1]
	}
	length := 7 + (level - len(levelTable))
	if length > maxSequenceLength {
		length = maxSequenceLength
	}
	return LevelConfig{SequenceLength: length, SpeedMs: fastSpeedMs, Opacity: minOpacity}
}

// Palette lists the celestial element identifiers a sequence draws from.
var Palette = []string{"planet", "star", "comet", "nebula", "blackhole"}

// GenerateSequence draws length elements uniformly from Palette such that no
// element immediately repeats.
func GenerateSequence(rng *rand.Rand, length int) []string {
	if length <= 0 {
		return nil
	}
	seq := make([]string, 0, length)
	for i := 0; i < length; i++ {
		if i == 0 {
			seq = append(seq, Palette[rng.Intn(len(Palette))])
			continue
		}
		// Draw from the palette minus the previous element; uniform over the rest.
		prev := indexOf(seq[i-1])
		pick := rng.Intn(len(Palette) - 1)
		if pick >= prev {
			pick++
		}
		seq = append(seq, Palette[pick])
	}
	return seq
}

func indexOf(id string) int {
	for i, p := range Palette {
		if p == id {
			return i
		}
	}
	return -1
}
