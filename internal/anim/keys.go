// Package anim samples keyframe channels and evaluates skeleton poses.
package anim

import "github.com/Faultbox/rigview/pkg/math"

// VectorKey is a timestamped position.
type VectorKey struct {
	Time  float64
	Value math.Vec3
}

// QuatKey is a timestamped rotation.
type QuatKey struct {
	Time  float64
	Value math.Quat
}

// SampleVector returns the position for tick. Positions are piecewise
// constant: the value of the later key of the first bracket
// prev.Time < tick <= curr.Time, or the first key when no bracket matches.
// keys must not be empty.
func SampleVector(tick float64, keys []VectorKey) math.Vec3 {
	for i := 1; i < len(keys); i++ {
		if keys[i-1].Time < tick && tick <= keys[i].Time {
			return keys[i].Value
		}
	}
	return keys[0].Value
}

// SampleQuat returns the rotation for tick. A key whose time equals tick is
// returned as is; otherwise the first bracketing pair is slerped. Ticks outside
// every bracket get the first key. keys must not be empty.
func SampleQuat(tick float64, keys []QuatKey) math.Quat {
	for i := range keys {
		if keys[i].Time == tick {
			return keys[i].Value
		}
	}
	for i := 1; i < len(keys); i++ {
		prev, curr := keys[i-1], keys[i]
		if prev.Time < tick && tick <= curr.Time {
			f := float32((tick - prev.Time) / (curr.Time - prev.Time))
			return prev.Value.Slerp(curr.Value, f)
		}
	}
	return keys[0].Value
}

// SampleMode selects how a tick is turned into a key.
type SampleMode int

const (
	// SampleBracket searches key times for the bracketing pair.
	SampleBracket SampleMode = iota
	// SampleIndex treats the tick as a key index, one key per tick.
	SampleIndex
)

func (m SampleMode) String() string {
	switch m {
	case SampleIndex:
		return "index"
	default:
		return "bracket"
	}
}

// ParseSampleMode maps a config string to a SampleMode. Unknown values fall
// back to SampleBracket.
func ParseSampleMode(s string) SampleMode {
	if s == "index" {
		return SampleIndex
	}
	return SampleBracket
}

// keyIndex clamps tick to a valid index; channels with one key always use 0.
func keyIndex(tick, n int) int {
	if n <= 1 || tick < 0 {
		return 0
	}
	if tick >= n {
		return n - 1
	}
	return tick
}
