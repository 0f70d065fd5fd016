// Package config loads cubeview.yaml and watches it for changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "cubeview.yaml"

// Vec3 is a YAML-friendly three component vector.
type Vec3 [3]float32

// Vec converts v to an mgl32 vector.
func (v Vec3) Vec() mgl32.Vec3 { return mgl32.Vec3(v) }

type Config struct {
	Window Window `yaml:"window"`
	Assets Assets `yaml:"assets"`
	Camera Camera `yaml:"camera"`
	Render Render `yaml:"render"`
	Scene  Scene  `yaml:"scene"`
	Log    Log    `yaml:"log"`
	// Watch enables hot reload of the camera and render sections.
	Watch bool `yaml:"watch"`
}

type Window struct {
	Title      string `yaml:"title"`
	Width      uint32 `yaml:"width"`
	Height     uint32 `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	CursorGrab bool   `yaml:"cursor_grab"`
}

type Assets struct {
	Dir string `yaml:"dir"`
}

// Camera configures the scene camera. FovY is in degrees.
type Camera struct {
	Eye    Vec3    `yaml:"eye"`
	Target Vec3    `yaml:"target"`
	Up     Vec3    `yaml:"up"`
	FovY   float32 `yaml:"fov_y"`
	ZNear  float32 `yaml:"z_near"`
	ZFar   float32 `yaml:"z_far"`
	Speed  float32 `yaml:"speed"`
}

type Render struct {
	ClearColor      [4]float64 `yaml:"clear_color"`
	PresentMode     string     `yaml:"present_mode"`
	MaxDrawEntities int        `yaml:"max_draw_entities"`
}

type Scene struct {
	Entities []Entity `yaml:"entities"`
}

// Entity places a model. Rotation is applied before translation.
type Entity struct {
	Model       string   `yaml:"model"`
	Rotation    Rotation `yaml:"rotation"`
	Translation Vec3     `yaml:"translation"`
}

type Rotation struct {
	Axis    Vec3    `yaml:"axis"`
	Degrees float32 `yaml:"degrees"`
}

type Log struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Default is the configuration used when no file exists: one textured cube
// in front of the camera.
func Default() *Config {
	return &Config{
		Window: Window{Title: "cubeview", Width: 800, Height: 600},
		Assets: Assets{Dir: "assets"},
		Camera: Camera{
			Eye:    Vec3{0, 1, 2},
			Target: Vec3{0, 0, 0},
			Up:     Vec3{0, 1, 0},
			FovY:   45,
			ZNear:  0.1,
			ZFar:   100,
			Speed:  10,
		},
		Render: Render{
			ClearColor:      [4]float64{0.1, 0.2, 0.3, 1},
			PresentMode:     "fifo",
			MaxDrawEntities: 1024,
		},
		Scene: Scene{Entities: []Entity{{
			Model:       "cube.obj",
			Rotation:    Rotation{Axis: Vec3{1, 0, 0}, Degrees: 45},
			Translation: Vec3{3, 1, -3},
		}}},
		Log: Log{Level: "info", Encoding: "console"},
	}
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are an error.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("config: "+format, args...))
	}

	if c.Window.Width == 0 || c.Window.Height == 0 {
		bad("window size %dx%d must be non-zero", c.Window.Width, c.Window.Height)
	}
	if c.Assets.Dir == "" {
		bad("assets.dir is empty")
	}

	cam := c.Camera
	if cam.Speed <= 0 {
		bad("camera.speed %v must be positive", cam.Speed)
	}
	if cam.FovY <= 0 || cam.FovY >= 180 {
		bad("camera.fov_y %v must be in (0, 180)", cam.FovY)
	}
	if cam.ZNear <= 0 || cam.ZNear >= cam.ZFar {
		bad("camera.z_near %v must be positive and below z_far %v", cam.ZNear, cam.ZFar)
	}
	forward := cam.Target.Vec().Sub(cam.Eye.Vec())
	switch {
	case forward.Len() == 0:
		bad("camera.eye and camera.target coincide")
	case cam.Up.Vec().Len() == 0:
		bad("camera.up is zero")
	case forward.Normalize().Cross(cam.Up.Vec().Normalize()).Len() < 1e-6:
		bad("camera.up is parallel to the view direction")
	}

	for i, ch := range c.Render.ClearColor {
		if ch < 0 || ch > 1 {
			bad("render.clear_color[%d] %v must be in [0, 1]", i, ch)
		}
	}
	switch c.Render.PresentMode {
	case "", "fifo", "mailbox", "immediate":
	default:
		bad("render.present_mode %q must be fifo, mailbox or immediate", c.Render.PresentMode)
	}
	if c.Render.MaxDrawEntities < 1 {
		bad("render.max_draw_entities %d must be at least 1", c.Render.MaxDrawEntities)
	}

	if len(c.Scene.Entities) == 0 {
		bad("scene has no entities")
	}
	for i, e := range c.Scene.Entities {
		if e.Model == "" {
			bad("scene.entities[%d] has no model", i)
		}
	}

	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		bad("log.encoding %q must be json or console", c.Log.Encoding)
	}
	return errors.Join(errs...)
}
