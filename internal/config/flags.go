package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagPreset     = flag.String("preset", "", "Scene preset: dwarf, mannequin or viewer")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagModel      = flag.String("model", "", "Model file (.gltf or .glb)")
	flagAnim       = flag.String("anim", "", "Separate animation file")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagShadow     = flag.Bool("shadow", false, "Draw the planar shadow")
	flagWriteCfg   = flag.String("write-config", "", "Write the effective config to this path and exit")
	flagSaveCfg    = flag.Bool("save-config", false, "Save the effective config to the user config directory and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the path given via --write-config.
func WriteConfigPath() string {
	return *flagWriteCfg
}

// SaveConfigRequested reports whether --save-config was given.
func SaveConfigRequested() bool {
	return *flagSaveCfg
}

// PresetName returns the preset requested via --preset.
func PresetName() string {
	return *flagPreset
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagModel != "" {
		cfg.Scene.Model = *flagModel
	}
	if *flagAnim != "" {
		cfg.Scene.Animation = *flagAnim
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagShadow {
		cfg.Scene.Shadow = true
	}
}
