package config

import (
	"fmt"
	"sort"
)

// presets reproduce the three classic demo setups on top of Default.
var presets = map[string]func(*Config){
	// Static or simple model, index sampling, key 1 tips it over.
	"viewer": func(c *Config) {
		c.Scene.Model = "models/ArmyPilot/ArmyPilot.glb"
		c.Animation.Sampling = "index"
		c.Animation.TickPolicy = "wrap"
		c.Camera.Height = 0
		c.Camera.Near = 1
	},
	// Character driven by a clip from another file, hips held in place.
	"mannequin": func(c *Config) {
		c.Scene.Model = "models/Mannequin/mannequin.glb"
		c.Scene.Animation = "models/Mannequin/run.glb"
		c.Scene.Anchored = []string{"free3dmodel_skeleton"}
		c.Scene.Floor.Enabled = true
		c.Scene.Floor.Y = -0.5
		c.Animation.Sampling = "index"
		c.Animation.TickPolicy = "wrap"
	},
	// Walk cycle grafted onto the dwarf's legs and spine, with a shadow.
	"dwarf": func(c *Config) {
		c.Scene.Model = "models/Dwarf/dwarf.glb"
		c.Scene.Center = false
		c.Scene.Floor.Enabled = true
		c.Scene.Shadow = true
		c.Scene.Retarget = RetargetConfig{
			Clip: "models/Dwarf/avatar_walk.glb",
			Map: map[string]int{
				"lankle": 17,
				"rankle": 20,
				"lknee":  16,
				"rknee":  19,
				"lhip":   15,
				"rhip":   18,
				"spine1": 4,
				"spine2": 2,
				"middle": 1,
				"neck":   4,
			},
		}
		c.Animation.TickPolicy = "free"
		c.Light.Position = [4]float32{-30, 35, 60, 1}
		c.Camera.Height = 1
		c.Camera.LookAtY = 0.5
	},
}

// Preset returns the default config adjusted for a named demo setup.
func Preset(name string) (*Config, error) {
	apply, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (have %v)", name, PresetNames())
	}
	cfg := Default()
	apply(cfg)
	return cfg, nil
}

// PresetNames lists the available presets in order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
