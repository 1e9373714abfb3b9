package scene

import (
	"errors"

	"github.com/Faultbox/rigview/internal/anim"
	"github.com/Faultbox/rigview/internal/skin"
	"github.com/Faultbox/rigview/pkg/math"
)

// TickPolicy decides how the running tick counter advances.
type TickPolicy int

const (
	// TickFree lets the counter grow; the evaluator wraps it per clip.
	TickFree TickPolicy = iota
	// TickWrap resets the counter to 0 once it reaches the clip duration.
	TickWrap
)

// ParseTickPolicy maps a config value to a policy, defaulting to TickFree.
func ParseTickPolicy(s string) TickPolicy {
	if s == "wrap" {
		return TickWrap
	}
	return TickFree
}

// AnimationContext owns the playback state for one scene.
type AnimationContext struct {
	Scene     *Scene
	Evaluator *anim.Evaluator // nil for scenes without animation
	Policy    TickPolicy
	Tick      int

	// Walk drives retargeted nodes while Walking is on.
	Walk    *anim.Retarget
	Walking bool

	blender skin.Blender
	rest    []math.Mat4
}

// NewAnimationContext returns a context playing clip on sc. clip may be nil
// for a static scene.
func NewAnimationContext(sc *Scene, clip *anim.Clip) (*AnimationContext, error) {
	c := &AnimationContext{Scene: sc, rest: sc.Skeleton.Snapshot()}
	if clip == nil {
		return c, nil
	}
	ev, err := anim.NewEvaluator(clip)
	if err != nil {
		return nil, err
	}
	c.Evaluator = ev
	return c, nil
}

// SetWalking switches retargeted playback on or off. While walking every
// channel keeps its first position so the figure stays in place.
func (c *AnimationContext) SetWalking(on bool) {
	if c.Walk == nil || c.Evaluator == nil {
		return
	}
	c.Walking = on
	c.Evaluator.PinAll = on
	if on {
		c.Evaluator.Retarget = c.Walk
	} else {
		c.Evaluator.Retarget = nil
	}
}

// Pose evaluates the current tick and skins every mesh from its base pose.
// Errors from individual channels or bones do not stop the rest of the pose.
func (c *AnimationContext) Pose() error {
	var errs []error
	if c.Evaluator != nil {
		c.Evaluator.CounterWraps = c.Policy == TickWrap
		if err := c.Evaluator.Evaluate(c.Tick, c.Scene.Skeleton); err != nil {
			errs = append(errs, err)
		}
	}
	for _, m := range c.Scene.Meshes {
		if !m.Skinned() {
			continue
		}
		if err := c.blender.Blend(m, c.Scene.Skeleton); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Advance moves the tick counter according to Policy.
func (c *AnimationContext) Advance() {
	if c.Policy == TickWrap && c.Evaluator != nil && c.Tick >= c.Evaluator.Clip.Ticks() {
		c.Tick = 0
		return
	}
	c.Tick++
}

// Restart puts every node and mesh back in the pose the context was created
// with and rewinds the counter, so the next Step poses tick 0.
func (c *AnimationContext) Restart() {
	c.Scene.Skeleton.Restore(c.rest)
	for _, m := range c.Scene.Meshes {
		m.Reset()
	}
	c.Tick = 0
}

// Step poses the scene for the current tick, then advances the counter.
func (c *AnimationContext) Step() error {
	err := c.Pose()
	c.Advance()
	return err
}
