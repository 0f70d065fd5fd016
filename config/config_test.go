package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/plus3/cubeview/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader(`
window:
  width: 1024
camera:
  speed: 4
  eye: [0, 2, 5]
scene:
  entities:
    - model: a.obj
      translation: [1, 2, 3]
    - model: b.obj
      rotation: {axis: [0, 1, 0], degrees: 90}
`))
	require.NoError(t, err)

	assert.Equal(t, uint32(1024), cfg.Window.Width)
	assert.Equal(t, uint32(600), cfg.Window.Height)
	assert.Equal(t, float32(4), cfg.Camera.Speed)
	assert.Equal(t, config.Vec3{0, 2, 5}, cfg.Camera.Eye)
	assert.Equal(t, float32(45), cfg.Camera.FovY)
	require.Len(t, cfg.Scene.Entities, 2)
	assert.Equal(t, config.Vec3{1, 2, 3}, cfg.Scene.Entities[0].Translation)
	assert.Equal(t, float32(90), cfg.Scene.Entities[1].Rotation.Degrees)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := config.Parse(strings.NewReader("window:\n  colour: red\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *config.Config){
		"zero window":     func(c *config.Config) { c.Window.Width = 0 },
		"speed":           func(c *config.Config) { c.Camera.Speed = 0 },
		"fov":             func(c *config.Config) { c.Camera.FovY = -1 },
		"near above far":  func(c *config.Config) { c.Camera.ZNear = 200 },
		"zero up":         func(c *config.Config) { c.Camera.Up = config.Vec3{} },
		"parallel up":     func(c *config.Config) { c.Camera.Up = config.Vec3{0, -1, -2} },
		"eye on target":   func(c *config.Config) { c.Camera.Target = c.Camera.Eye },
		"empty scene":     func(c *config.Config) { c.Scene.Entities = nil },
		"no model":        func(c *config.Config) { c.Scene.Entities[0].Model = "" },
		"present mode":    func(c *config.Config) { c.Render.PresentMode = "vsync" },
		"slots":           func(c *config.Config) { c.Render.MaxDrawEntities = 0 },
		"clear color":     func(c *config.Config) { c.Render.ClearColor[2] = 2 },
		"log encoding":    func(c *config.Config) { c.Log.Encoding = "xml" },
		"empty asset dir": func(c *config.Config) { c.Assets.Dir = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cubeview.yaml")
	require.NoError(t, os.WriteFile(path, []byte("camera:\n  speed: 1\n"), 0o644))

	w, err := config.NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("camera:\n  speed: 0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644))
	select {
	case cfg := <-w.Updates():
		t.Fatalf("invalid config delivered: %+v", cfg.Camera)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte("camera:\n  speed: 7\n"), 0o644))
	select {
	case cfg := <-w.Updates():
		assert.Equal(t, float32(7), cfg.Camera.Speed)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
