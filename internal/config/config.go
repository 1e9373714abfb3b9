// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Animation AnimationConfig `yaml:"animation"`
	Scene     SceneConfig     `yaml:"scene"`
	Light     LightConfig     `yaml:"light"`
	Camera    CameraConfig    `yaml:"camera"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`

	ScreenshotDir string `yaml:"screenshot_dir"`
}

// AnimationConfig holds playback timing.
type AnimationConfig struct {
	TickMS         int     `yaml:"tick_ms"`          // fixed step between ticks
	TicksPerSecond float64 `yaml:"ticks_per_second"` // keyframe seconds to ticks
	Clip           string  `yaml:"clip"`             // clip name, empty for the first
	Sampling       string  `yaml:"sampling"`         // "bracket" or "index"
	TickPolicy     string  `yaml:"tick_policy"`      // "free" or "wrap"
	Paused         bool    `yaml:"paused"`
}

// SceneConfig holds what to load and how to place it.
type SceneConfig struct {
	Model      string `yaml:"model"`
	Animation  string `yaml:"animation"` // separate clip file, optional
	TextureDir string `yaml:"texture_dir"`

	Pinned   []string `yaml:"pinned"`   // nodes that keep their first position key
	Anchored []string `yaml:"anchored"` // nodes with translation removed

	Center      bool       `yaml:"center"`
	Offset      [3]float32 `yaml:"offset"`
	RotateModel bool       `yaml:"rotate_model"`

	Floor  FloorConfig `yaml:"floor"`
	Shadow bool        `yaml:"shadow"`

	Retarget RetargetConfig `yaml:"retarget"`
}

// FloorConfig describes the checkerboard floor.
type FloorConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	Tile    int           `yaml:"tile"`
	Y       float32       `yaml:"y"`
	Colors  [2][3]float32 `yaml:"colors"`
}

// RetargetConfig drives selected nodes from a second clip while walking.
type RetargetConfig struct {
	Clip     string         `yaml:"clip"`      // file holding the alternate clip
	ClipName string         `yaml:"clip_name"` // empty for the first clip in the file
	Map      map[string]int `yaml:"map"`       // node name -> channel index
	// Names maps node names to the alternate clip's channel node names.
	// Entries here override Map.
	Names   map[string]string `yaml:"names,omitempty"`
	Walking bool              `yaml:"walking"` // start with retargeting on
}

// LightConfig holds the point light and default material.
type LightConfig struct {
	Position      [4]float32 `yaml:"position"`
	Ambient       float32    `yaml:"ambient"`
	Shininess     float32    `yaml:"shininess"`
	MaterialColor [4]float32 `yaml:"material_color"`
	ReplaceColor  bool       `yaml:"replace_color"` // ignore model colours
	TwoSided      bool       `yaml:"two_sided"`
}

// CameraConfig holds the orbiting eye.
type CameraConfig struct {
	Angle   float32 `yaml:"angle"` // degrees
	Radius  float32 `yaml:"radius"`
	Height  float32 `yaml:"height"`
	LookAtY float32 `yaml:"look_at_y"`
	FOV     float32 `yaml:"fov"` // degrees
	Near    float32 `yaml:"near"`
	Far     float32 `yaml:"far"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "rigview",
			Width:  600,
			Height: 600,
			VSync:  true,
		},
		Animation: AnimationConfig{
			TickMS:         50,
			TicksPerSecond: 30,
			Sampling:       "bracket",
			TickPolicy:     "free",
		},
		Scene: SceneConfig{
			Center: true,
			Floor: FloorConfig{
				Size:   10,
				Tile:   1,
				Colors: [2][3]float32{{0.8, 0.2, 0.3}, {0.6, 0.2, 0.4}},
			},
		},
		Light: LightConfig{
			Position:      [4]float32{0, 50, 50, 1},
			Ambient:       0.2,
			Shininess:     50,
			MaterialColor: [4]float32{0.5, 0.9, 0.9, 1},
		},
		Camera: CameraConfig{
			Radius: 3,
			Height: 0.5,
			FOV:    35,
			Near:   0.01,
			Far:    1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
