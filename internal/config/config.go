// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("invalid config")

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Render  RenderConfig  `yaml:"render"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// RenderConfig holds texture resolution and projection settings.
type RenderConfig struct {
	Placeholder       string   `yaml:"placeholder"`        // texture drawn for unresolved references
	TextureExtensions []string `yaml:"texture_extensions"` // tried in order
	SkipSuffixes      []string `yaml:"skip_suffixes"`      // non-diffuse map stems
	FOV               float32  `yaml:"fov"`
	Near              float32  `yaml:"near"`
	Far               float32  `yaml:"far"`
	DemoGrid          int      `yaml:"demo_grid"` // instances per side of the built-in demo, 0 disables it
}

// DataConfig holds asset locations.
type DataConfig struct {
	Roots   []string `yaml:"roots"`   // directories searched for models and textures, later roots win
	Models  []string `yaml:"models"`  // model paths relative to the roots
	Preload bool     `yaml:"preload"` // read all model files in parallel before building

	ScreenshotDir string `yaml:"screenshot_dir"`
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
			Title:      "MDX Viewer",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Render: RenderConfig{
			Placeholder:       "Textures/btntempw.dds",
			TextureExtensions: []string{".dds", ".blp", ".png"},
			SkipSuffixes:      []string{"Normal", "ORM", "EnvironmentMap", "Black32", "Emissive"},
			FOV:               70,
			Near:              1,
			Far:               50000,
			DemoGrid:          4,
		},
		Data: DataConfig{
			Roots:         []string{"data"},
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks settings that would make the viewer unusable.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Render.FOV <= 0 || c.Render.FOV >= 180:
		return fmt.Errorf("%w: fov %v", ErrInvalid, c.Render.FOV)
	case c.Render.Near <= 0 || c.Render.Far <= c.Render.Near:
		return fmt.Errorf("%w: clip planes near=%v far=%v", ErrInvalid, c.Render.Near, c.Render.Far)
	case c.Render.DemoGrid < 0:
		return fmt.Errorf("%w: demo grid %d", ErrInvalid, c.Render.DemoGrid)
	case len(c.Render.TextureExtensions) == 0:
		return fmt.Errorf("%w: no texture extensions", ErrInvalid)
	}
	return nil
}
