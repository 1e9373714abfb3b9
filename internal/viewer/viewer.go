package viewer

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/rigview/internal/config"
	"github.com/Faultbox/rigview/internal/engine/camera"
	"github.com/Faultbox/rigview/internal/engine/debug"
	"github.com/Faultbox/rigview/internal/engine/input"
	"github.com/Faultbox/rigview/internal/engine/renderer"
	"github.com/Faultbox/rigview/internal/engine/window"
	"github.com/Faultbox/rigview/internal/logger"
)

// maxBacklog bounds how many ticks a stalled frame may catch up on.
const maxBacklog = 5

// Viewer is the interactive window around a Session.
type Viewer struct {
	cfg      *config.Config
	session  *Session
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	shots    *debug.ScreenshotCapture
	title    string
	log      *zap.Logger
}

// New opens the window, creates the GL renderer and uploads the session's
// scene.
func New(cfg *config.Config, s *Session) (*Viewer, error) {
	v := &Viewer{
		cfg:     cfg,
		session: s,
		log:     logger.Named("viewer"),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer AFTER window, since the OpenGL context must exist
	w, h := v.window.Size()
	lc, fc := cfg.Light, cfg.Scene.Floor
	v.renderer, err = renderer.New(
		renderer.Config{Width: w, Height: h},
		renderer.Lighting{
			Position:     lc.Position,
			Ambient:      lc.Ambient,
			Shininess:    lc.Shininess,
			DefaultColor: lc.MaterialColor,
			ReplaceColor: lc.ReplaceColor,
			TwoSided:     lc.TwoSided,
		},
		renderer.Floor{
			Enabled: fc.Enabled,
			Size:    fc.Size,
			Tile:    fc.Tile,
			Y:       fc.Y,
			Colors:  fc.Colors,
		},
	)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	v.renderer.Load(s.Scene)

	v.input = input.New()
	v.shots = debug.NewScreenshotCapture(cfg.Window.ScreenshotDir, "rigview")
	return v, nil
}

// Run drives the fixed-step loop until the window is closed.
func (v *Viewer) Run() error {
	v.running = true

	step := time.Duration(v.cfg.Animation.TickMS) * time.Millisecond
	last := time.Now()
	var acc time.Duration

	v.log.Info("starting viewer loop", zap.Duration("step", step))

	for v.running {
		if v.input.Update() {
			v.running = false
			break
		}
		for _, e := range v.input.Events() {
			if e.Type == input.EventWindowResize {
				w, h := v.window.Size()
				v.renderer.Resize(w, h)
			}
		}

		shot := false
		for _, a := range v.input.Actions() {
			switch v.session.Handle(a) {
			case CommandQuit:
				v.running = false
			case CommandScreenshot:
				shot = true
			case CommandUpload:
				v.renderer.Update()
			case CommandFullscreen:
				if err := v.window.ToggleFullscreen(); err != nil {
					v.log.Warn("fullscreen toggle failed", zap.Error(err))
				}
			}
		}

		now := time.Now()
		acc += now.Sub(last)
		last = now
		if acc > maxBacklog*step {
			acc = step
		}
		ticked := false
		for acc >= step {
			acc -= step
			if !v.session.Paused {
				v.session.Tick()
				ticked = true
			}
		}
		if ticked {
			v.renderer.Update()
		}

		v.updateTitle()
		v.render()
		if shot {
			v.screenshot()
		}
		v.window.SwapBuffers()
	}

	return nil
}

func (v *Viewer) updateTitle() {
	title := v.cfg.Window.Title + " | " + v.session.Status()
	if title != v.title {
		v.window.SetTitle(title)
		v.title = title
	}
}

func (v *Viewer) screenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	if pixels == nil {
		v.log.Warn("screenshot skipped: empty framebuffer")
		return
	}
	path, err := v.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

func (v *Viewer) render() {
	s := v.session
	w, h := v.renderer.Size()
	cc := v.cfg.Camera
	v.renderer.Draw(s.Scene, renderer.Frame{
		Projection: camera.Projection(cc.FOV, w, h, cc.Near, cc.Far),
		View:       s.Eye.ViewMatrix(),
		Eye:        s.Eye.Position(),
		Model:      s.ModelMatrix(),
		Shadow:     s.Shadow,
	})
}

// Close releases the renderer and the window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
