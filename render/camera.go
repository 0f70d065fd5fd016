package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/cubeview/clock"
	"github.com/plus3/cubeview/ecs"
	"github.com/plus3/cubeview/input"
)

// clipCorrection maps OpenGL clip depth [-1, 1] onto WebGPU's [0, 1].
var clipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// CameraSettings are the configurable parts of a camera. FovY is in degrees.
type CameraSettings struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3
	FovY   float32
	ZNear  float32
	ZFar   float32
	Speed  float32
}

// DefaultCameraSettings looks at the origin from slightly above and behind.
func DefaultCameraSettings() CameraSettings {
	return CameraSettings{
		Eye:    mgl32.Vec3{0, 1, 2},
		Target: mgl32.Vec3{0, 0, 0},
		Up:     mgl32.Vec3{0, 1, 0},
		FovY:   45,
		ZNear:  0.1,
		ZFar:   100,
		Speed:  10,
	}
}

// Camera is a perspective camera component. Uniform caches the
// view-projection matrix and is refreshed by Update and SetAspect.
// Up must be non-zero and not parallel to Target-Eye.
type Camera struct {
	Eye     mgl32.Vec3
	Target  mgl32.Vec3
	Up      mgl32.Vec3
	FovY    float32
	Aspect  float32
	ZNear   float32
	ZFar    float32
	Speed   float32
	Uniform mgl32.Mat4
}

// NewCamera creates a camera with its uniform already computed.
func NewCamera(s CameraSettings, aspect float32) Camera {
	c := Camera{
		Eye:    s.Eye,
		Target: s.Target,
		Up:     s.Up,
		FovY:   s.FovY,
		Aspect: aspect,
		ZNear:  s.ZNear,
		ZFar:   s.ZFar,
		Speed:  s.Speed,
	}
	c.Uniform = c.ViewProjection()
	return c
}

// ViewProjection builds the clip-corrected view-projection matrix.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	view := mgl32.LookAtV(c.Eye, c.Target, c.Up)
	projection := mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect, c.ZNear, c.ZFar)
	return clipCorrection.Mul4(projection).Mul4(view)
}

// Update moves the eye for each pressed movement key, in order, then
// refreshes Uniform. W and S move along the view direction; A and D strafe
// along the right vector computed after the forward move. Releases and
// unknown keys are ignored.
func (c *Camera) Update(events []input.KeyboardEvent, dt float32) {
	step := c.Speed * dt
	for _, ev := range events {
		if ev.State != input.Pressed {
			continue
		}

		forward := c.Target.Sub(c.Eye).Normalize()
		switch ev.Key {
		case input.KeyW:
			c.Eye = c.Eye.Add(forward.Mul(step))
		case input.KeyS:
			c.Eye = c.Eye.Sub(forward.Mul(step))
		}

		right := c.Target.Sub(c.Eye).Normalize().Cross(c.Up).Normalize()
		switch ev.Key {
		case input.KeyA:
			c.Eye = c.Eye.Sub(right.Mul(step))
		case input.KeyD:
			c.Eye = c.Eye.Add(right.Mul(step))
		}
	}
	c.Uniform = c.ViewProjection()
}

// SetAspect updates the aspect ratio from a surface size and refreshes Uniform.
func (c *Camera) SetAspect(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
	c.Uniform = c.ViewProjection()
}

// Apply copies configurable settings onto a live camera without moving it.
func (c *Camera) Apply(s CameraSettings) {
	c.FovY = s.FovY
	c.ZNear = s.ZNear
	c.ZFar = s.ZFar
	c.Speed = s.Speed
	c.Uniform = c.ViewProjection()
}

// CameraSystem moves every camera from this tick's keyboard events.
type CameraSystem struct {
	Events  ecs.Singleton[input.KeyboardEvents] `ecs:"read"`
	Clock   ecs.Singleton[clock.Clock]          `ecs:"read"`
	Cameras ecs.Query[struct{ *Camera }]
}

func (s *CameraSystem) Execute(frame *ecs.UpdateFrame) error {
	var events []input.KeyboardEvent
	if q := s.Events.Get(); q != nil {
		events = q.Read()
	}
	var dt float32
	if c := s.Clock.Get(); c != nil {
		dt = c.DeltaSeconds()
	}
	for v := range s.Cameras.Values() {
		v.Camera.Update(events, dt)
	}
	return nil
}
