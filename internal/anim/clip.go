package anim

import (
	"errors"
	"fmt"
)

// ErrEmptyChannel is returned for channels without position or rotation keys.
var ErrEmptyChannel = errors.New("channel has no keys")

// Channel is one node's track within a clip.
type Channel struct {
	NodeName     string
	PositionKeys []VectorKey
	RotationKeys []QuatKey
}

// Clip is a named animation made of per-node channels. Duration is in ticks.
type Clip struct {
	Name           string
	Duration       float64
	TicksPerSecond float64
	Channels       []Channel
}

// Ticks returns the integer duration used for wrapping, at least 1.
func (c *Clip) Ticks() int {
	d := int(c.Duration)
	if d <= 0 {
		return 1
	}
	return d
}

// ChannelIndex returns the index of the channel driving node name, or -1.
func (c *Clip) ChannelIndex(name string) int {
	for i := range c.Channels {
		if c.Channels[i].NodeName == name {
			return i
		}
	}
	return -1
}

// Validate checks that every channel can be sampled.
func (c *Clip) Validate() error {
	for i := range c.Channels {
		ch := &c.Channels[i]
		if len(ch.PositionKeys) == 0 || len(ch.RotationKeys) == 0 {
			return fmt.Errorf("clip %q channel %d (%s): %w", c.Name, i, ch.NodeName, ErrEmptyChannel)
		}
	}
	return nil
}

// EffectiveTick maps a running counter onto the 1-based tick sampled for a
// clip of the given duration: (tick mod D) + 1.
func EffectiveTick(tick, duration int) int {
	if duration <= 0 {
		duration = 1
	}
	t := tick % duration
	if t < 0 {
		t += duration
	}
	return t + 1
}
