// Package viewer runs the fixed-step animation loop and maps keyboard
// actions onto the scene and the eye.
package viewer

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/rigview/internal/anim"
	"github.com/Faultbox/rigview/internal/config"
	"github.com/Faultbox/rigview/internal/engine/camera"
	"github.com/Faultbox/rigview/internal/engine/input"
	"github.com/Faultbox/rigview/internal/loader"
	"github.com/Faultbox/rigview/internal/logger"
	"github.com/Faultbox/rigview/internal/scene"
	"github.com/Faultbox/rigview/internal/skeleton"
	"github.com/Faultbox/rigview/pkg/math"
)

// Session is the viewer state that does not touch the GPU: the scene, its
// playback, the eye and the toggles.
type Session struct {
	Scene *scene.Scene
	Anim  *scene.AnimationContext
	Eye   *camera.Eye

	Fit     math.Mat4
	Rotated bool
	Paused  bool
	Shadow  bool

	center bool
	offset math.Vec3
	log    *zap.Logger
}

// Open loads the model, the optional separate clip file and the optional
// retarget clip named by cfg, then builds a session on them.
func Open(cfg *config.Config) (*Session, error) {
	if cfg.Scene.Model == "" {
		return nil, errors.New("no model given")
	}
	opts := loader.Options{
		TicksPerSecond: cfg.Animation.TicksPerSecond,
		TextureDir:     cfg.Scene.TextureDir,
	}

	sc, err := loader.Load(cfg.Scene.Model, opts)
	if err != nil {
		return nil, err
	}

	if cfg.Scene.Animation != "" {
		clips, err := loader.LoadClips(cfg.Scene.Animation, opts)
		if err != nil {
			return nil, err
		}
		if len(clips) == 0 {
			return nil, fmt.Errorf("animation %s holds no clips", cfg.Scene.Animation)
		}
		sc.Clips = clips
	}

	var walk *anim.Retarget
	if rc := cfg.Scene.Retarget; rc.Clip != "" {
		clips, err := loader.LoadClips(rc.Clip, opts)
		if err != nil {
			return nil, err
		}
		alt := (&scene.Scene{Clips: clips}).Clip(rc.ClipName)
		if alt == nil {
			return nil, fmt.Errorf("retarget clip %q not found in %s", rc.ClipName, rc.Clip)
		}
		mapping, err := retargetMap(alt, rc)
		if err != nil {
			return nil, fmt.Errorf("retarget %s: %w", rc.Clip, err)
		}
		walk, err = anim.NewRetarget(alt, mapping)
		if err != nil {
			return nil, fmt.Errorf("retarget %s: %w", rc.Clip, err)
		}
	}

	return NewSession(sc, walk, cfg)
}

// retargetMap merges the index map with the name map, resolving names to
// channel indices of alt.
func retargetMap(alt *anim.Clip, rc config.RetargetConfig) (map[string]int, error) {
	out := make(map[string]int, len(rc.Map)+len(rc.Names))
	for node, idx := range rc.Map {
		out[node] = idx
	}
	for node, channel := range rc.Names {
		idx := alt.ChannelIndex(channel)
		if idx < 0 {
			return nil, fmt.Errorf("clip %q has no channel for %q (mapped from %q)", alt.Name, channel, node)
		}
		out[node] = idx
	}
	return out, nil
}

// NewSession sets up playback of sc per cfg and poses the first tick. walk
// may be nil.
func NewSession(sc *scene.Scene, walk *anim.Retarget, cfg *config.Config) (*Session, error) {
	clip := sc.Clip(cfg.Animation.Clip)
	if clip == nil && cfg.Animation.Clip != "" {
		return nil, fmt.Errorf("clip %q not found", cfg.Animation.Clip)
	}

	ac, err := scene.NewAnimationContext(sc, clip)
	if err != nil {
		return nil, err
	}
	ac.Policy = scene.ParseTickPolicy(cfg.Animation.TickPolicy)
	if ev := ac.Evaluator; ev != nil {
		ev.Mode = anim.ParseSampleMode(cfg.Animation.Sampling)
		for _, n := range cfg.Scene.Pinned {
			ev.Pinned[n] = true
		}
		for _, n := range cfg.Scene.Anchored {
			ev.Anchored[n] = true
		}
	}
	ac.Walk = walk
	ac.SetWalking(cfg.Scene.Retarget.Walking)

	cc := cfg.Camera
	s := &Session{
		Scene:   sc,
		Anim:    ac,
		Eye:     camera.NewEye(cc.Angle, cc.Radius, cc.Height, cc.LookAtY),
		Fit:     math.Identity(),
		Rotated: cfg.Scene.RotateModel,
		Paused:  cfg.Animation.Paused,
		Shadow:  cfg.Scene.Shadow,
		center:  cfg.Scene.Center,
		offset:  math.Vec3From(cfg.Scene.Offset),
		log:     logger.Named("viewer"),
	}

	s.log.Info("session ready",
		zap.String("scene", sc.Name),
		zap.Stringer("evaluator", ac.Evaluator),
		zap.Bool("walk", walk != nil),
	)

	s.Tick()
	return s, nil
}

// Tick poses the current tick and advances playback. The fit is recomputed
// from the freshly skinned vertices whenever tick 0 is posed.
func (s *Session) Tick() {
	refit := s.Anim.Tick == 0
	if err := s.Anim.Step(); err != nil {
		s.report(err)
	}
	if refit {
		s.refit()
	}
}

func (s *Session) refit() {
	lo, hi, ok := s.Scene.Bounds()
	if !ok {
		return
	}
	s.Fit = scene.FitMatrix(lo, hi, s.center)
	bmin, bmax := lo.Array(), hi.Array()
	s.log.Debug("scene bounds",
		zap.Float32s("min", bmin[:]),
		zap.Float32s("max", bmax[:]),
	)
}

// report logs each distinct per-tick failure once.
func (s *Session) report(err error) {
	for _, e := range flatten(err) {
		key := e.Error()
		var unresolved *skeleton.UnresolvedBoneReferenceError
		if errors.As(e, &unresolved) {
			key = "unresolved:" + unresolved.Name
		}
		logger.WarnOnce(key, "pose error", zap.Int("tick", s.Anim.Tick), zap.Error(e))
	}
}

func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// ModelMatrix places the scene: fit first, then the optional quarter turn
// about X, then the configured offset.
func (s *Session) ModelMatrix() math.Mat4 {
	m := math.TranslateVec(s.offset)
	if s.Rotated {
		m = m.Mul(math.RotateX(math32.Pi / 2))
	}
	return m.Mul(s.Fit)
}

// Status is a one-line playback summary for the title bar.
func (s *Session) Status() string {
	clip := "static"
	if ev := s.Anim.Evaluator; ev != nil {
		clip = ev.Clip.Name
	}
	out := fmt.Sprintf("%s tick %d", clip, s.Anim.Tick)
	if s.Anim.Walking {
		out += " walk"
	}
	if s.Paused {
		out += " [paused]"
	}
	return out
}

// Command is a side effect a handled action asks the caller to perform.
type Command int

const (
	CommandNone Command = iota
	CommandQuit
	CommandScreenshot
	CommandFullscreen
	// CommandUpload asks for the skinned meshes to be re-uploaded outside a tick.
	CommandUpload
)

// Handle applies an action. With a walk retarget loaded, 1 and 2 switch it
// off and on; otherwise 1 toggles the quarter turn.
func (s *Session) Handle(a input.Action) Command {
	switch a {
	case input.ActionQuit:
		return CommandQuit
	case input.ActionScreenshot:
		return CommandScreenshot
	case input.ActionFullscreen:
		return CommandFullscreen
	case input.ActionOrbitLeft:
		s.Eye.Rotate(-camera.AngleStep)
	case input.ActionOrbitRight:
		s.Eye.Rotate(camera.AngleStep)
	case input.ActionZoomIn:
		s.Eye.Zoom(-camera.RadiusStep)
	case input.ActionZoomOut:
		s.Eye.Zoom(camera.RadiusStep)
	case input.ActionRaise:
		s.Eye.Raise(camera.HeightStep)
	case input.ActionLower:
		s.Eye.Raise(-camera.HeightStep)
	case input.ActionToggle1:
		if s.Anim.Walk != nil {
			s.Anim.SetWalking(false)
		} else {
			s.Rotated = !s.Rotated
		}
	case input.ActionToggle2:
		if s.Anim.Walk != nil {
			s.Anim.SetWalking(true)
		}
	case input.ActionPause:
		s.Paused = !s.Paused
	case input.ActionRestart:
		s.Anim.Restart()
		s.refit()
		s.log.Debug("action", zap.Stringer("action", a))
		return CommandUpload
	}
	if a != input.ActionNone {
		s.log.Debug("action", zap.Stringer("action", a))
	}
	return CommandNone
}
