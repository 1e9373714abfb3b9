package anim

import (
	"errors"
	"fmt"
	"sort"
)

// ErrRetargetChannelRange is returned when a mapping points past the
// alternate clip's channels.
var ErrRetargetChannelRange = errors.New("retarget channel index out of range")

// Retarget drives selected nodes' rotations from another clip. Map goes from
// node name to a channel index in Clip.
type Retarget struct {
	Clip *Clip
	Map  map[string]int
}

// NewRetarget validates mapping against clip.
func NewRetarget(clip *Clip, mapping map[string]int) (*Retarget, error) {
	if clip == nil {
		return nil, errors.New("retarget: nil clip")
	}
	if err := clip.Validate(); err != nil {
		return nil, fmt.Errorf("retarget: %w", err)
	}
	names := make([]string, 0, len(mapping))
	for name := range mapping {
		names = append(names, name)
	}
	sort.Strings(names)
	m := make(map[string]int, len(mapping))
	for _, name := range names {
		idx := mapping[name]
		if idx < 0 || idx >= len(clip.Channels) {
			return nil, fmt.Errorf("retarget %q -> %d (clip %q has %d channels): %w",
				name, idx, clip.Name, len(clip.Channels), ErrRetargetChannelRange)
		}
		m[name] = idx
	}
	return &Retarget{Clip: clip, Map: m}, nil
}

// channel returns the alternate channel for node name.
func (r *Retarget) channel(name string) (*Channel, bool) {
	if r == nil {
		return nil, false
	}
	idx, ok := r.Map[name]
	if !ok {
		return nil, false
	}
	return &r.Clip.Channels[idx], true
}
