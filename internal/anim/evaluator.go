package anim

import (
	"errors"
	"fmt"

	"github.com/Faultbox/rigview/pkg/math"
)

// Pose is the node storage an Evaluator writes into.
type Pose interface {
	Resolve(name string) (int, error)
	SetLocal(i int, m math.Mat4)
}

// Evaluator writes a clip's transforms for a tick into a Pose.
type Evaluator struct {
	Clip *Clip
	Mode SampleMode

	// Pinned nodes keep their first position key (in-place looping).
	Pinned map[string]bool
	// Anchored nodes get no translation at all.
	Anchored map[string]bool
	// PinAll pins the position of every channel.
	PinAll bool
	// CounterWraps reports that the caller's tick already resets after
	// reaching the clip duration, so index sampling uses it unwrapped.
	CounterWraps bool

	// Retarget, when set, replaces rotations of mapped nodes.
	Retarget *Retarget
}

// NewEvaluator validates clip and returns an evaluator in bracket mode.
func NewEvaluator(clip *Clip) (*Evaluator, error) {
	if clip == nil {
		return nil, errors.New("evaluator: nil clip")
	}
	if err := clip.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{
		Clip:     clip,
		Pinned:   map[string]bool{},
		Anchored: map[string]bool{},
	}, nil
}

// Evaluate samples every channel at tick and writes
// Translate(position) * Rotate(rotation) into the matching node. Channels
// whose node cannot be resolved are skipped; their errors are joined and
// returned after the rest of the pose has been written.
func (e *Evaluator) Evaluate(tick int, pose Pose) error {
	var errs []error
	for i := range e.Clip.Channels {
		ch := &e.Clip.Channels[i]
		node, err := pose.Resolve(ch.NodeName)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pos := e.position(tick, ch)
		rot := e.rotation(tick, ch)
		pose.SetLocal(node, math.TranslateVec(pos).Mul(rot.ToMat4()))
	}
	return errors.Join(errs...)
}

func (e *Evaluator) position(tick int, ch *Channel) math.Vec3 {
	if e.Anchored[ch.NodeName] {
		return math.Vec3{}
	}
	if e.PinAll || e.Pinned[ch.NodeName] {
		return ch.PositionKeys[0].Value
	}
	if e.Mode == SampleIndex {
		return ch.PositionKeys[keyIndex(e.indexTick(tick, e.Clip.Ticks(), true), len(ch.PositionKeys))].Value
	}
	return SampleVector(float64(EffectiveTick(tick, e.Clip.Ticks())), ch.PositionKeys)
}

func (e *Evaluator) rotation(tick int, ch *Channel) math.Quat {
	src, dur, own := ch, e.Clip.Ticks(), true
	if alt, ok := e.Retarget.channel(ch.NodeName); ok {
		src, dur, own = alt, e.Retarget.Clip.Ticks(), false
	}
	if e.Mode == SampleIndex {
		return src.RotationKeys[keyIndex(e.indexTick(tick, dur, own), len(src.RotationKeys))].Value
	}
	return SampleQuat(float64(EffectiveTick(tick, dur)), src.RotationKeys)
}

// indexTick turns tick into a key index for SampleIndex. A wrapping counter
// reaches the duration itself before it resets, so tick D shows key D of the
// evaluator's own clip.
func (e *Evaluator) indexTick(tick, duration int, own bool) int {
	if e.CounterWraps && own {
		return tick
	}
	return wrap(tick, duration)
}

// wrap is the 0-based counterpart of EffectiveTick used by index sampling.
func wrap(tick, duration int) int {
	return EffectiveTick(tick, duration) - 1
}

// String summarizes the evaluator for logs.
func (e *Evaluator) String() string {
	if e == nil {
		return "static"
	}
	alt := "none"
	if e.Retarget != nil {
		alt = fmt.Sprintf("%s (%d nodes)", e.Retarget.Clip.Name, len(e.Retarget.Map))
	}
	return fmt.Sprintf("clip=%s mode=%s pinAll=%v retarget=%s", e.Clip.Name, e.Mode, e.PinAll, alt)
}
