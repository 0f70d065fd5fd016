package render_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/cubeview/asset"
	"github.com/plus3/cubeview/ecs"
	"github.com/plus3/cubeview/gpu"
	"github.com/plus3/cubeview/gpu/headless"
	"github.com/plus3/cubeview/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var surfaceConfig = gpu.SurfaceConfig{
	Width:  640,
	Height: 480,
	Format: gpu.TextureFormatBGRA8UnormSrgb,
}

// triangleLoader serves a one-triangle model under any name.
type triangleLoader struct {
	loads int
}

func (l *triangleLoader) Load(name string) (*asset.ModelData, error) {
	l.loads++
	return &asset.ModelData{
		Name: name,
		Meshes: []asset.MeshData{{
			Name: "tri",
			Vertices: []asset.Vertex{
				{Position: mgl32.Vec3{0, 0, 0}},
				{Position: mgl32.Vec3{1, 0, 0}},
				{Position: mgl32.Vec3{0, 1, 0}},
			},
			Indices: []uint32{0, 1, 2},
		}},
	}, nil
}

type testWorld struct {
	rec     *headless.Recorder
	storage *ecs.Storage
	sched   *ecs.Scheduler
	loader  *triangleLoader
}

func newTestWorld(t *testing.T, slots int, entities ...render.SceneEntity) *testWorld {
	t.Helper()
	reg := ecs.NewComponentRegistry()
	render.RegisterComponents(reg)
	storage := ecs.NewStorage(reg)

	rec := headless.New()
	require.NoError(t, rec.Surface().Configure(surfaceConfig))

	settings := render.DefaultRenderSettings()
	settings.MaxDrawEntities = slots
	storage.AddSingleton(render.GPU{Device: rec.Device(), Queue: rec.Queue()})
	storage.AddSingleton(render.Display{Surface: rec.Surface(), Config: surfaceConfig})
	storage.AddSingleton(settings)
	storage.AddSingleton(render.NewModels())

	w := &testWorld{rec: rec, storage: storage, sched: ecs.NewScheduler(storage), loader: &triangleLoader{}}
	require.NoError(t, w.sched.AddStage("startup", ecs.RunOnce))
	require.NoError(t, w.sched.AddStage("scene", ecs.RunOnce))
	require.NoError(t, w.sched.AddStage("render"))
	w.sched.MustRegister("startup", &render.StartupSystem{Logger: zap.NewNop()})
	w.sched.MustRegister("scene", &render.SceneSystem{
		Loader:   w.loader,
		Entities: entities,
		Camera:   render.DefaultCameraSettings(),
		Logger:   zap.NewNop(),
	})
	w.sched.MustRegister("render", &render.RenderSystem{})
	return w
}

func placed(model string, x float32) render.SceneEntity {
	return render.SceneEntity{
		Model:     model,
		Transform: render.FromRotationTranslation(mgl32.Vec3{}, 0, mgl32.Vec3{x, 0, 0}),
	}
}

func labels(ops []headless.Op) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.Label
	}
	return out
}

func TestInitializeCreationOrder(t *testing.T) {
	rec := headless.New()
	p, err := render.Initialize(rec.Device(), surfaceConfig, 4)
	require.NoError(t, err)

	assert.Equal(t, []string{
		render.LabelDiffuseLayout,
		render.LabelSampler,
		render.LabelCameraLayout,
		render.LabelCameraBuffer,
		render.LabelCameraGroup,
		render.LabelWorldLayout,
		render.LabelWorldBuffer,
		render.LabelWorldGroup,
		render.LabelDepth,
		render.LabelPipeline,
	}, labels(rec.OpsOf(
		headless.OpCreateLayout, headless.OpCreateSampler, headless.OpCreateBuffer,
		headless.OpCreateBindGroup, headless.OpCreateTexture, headless.OpCreatePipeline,
	)))

	buffers := rec.OpsOf(headless.OpCreateBuffer)
	world := buffers[1].Handle
	assert.Len(t, world.Data, 4*gpu.UniformAlignment)
	assert.Equal(t, mgl32.Ident4(), gpu.BytesMat4(world.Data[3*gpu.UniformAlignment:]))
	assert.Equal(t, mgl32.Ident4(), gpu.BytesMat4(buffers[0].Handle.Data))
	assert.Equal(t, 4, p.Slots)
}

func TestInitializeReleasesOnFailure(t *testing.T) {
	for _, label := range []string{render.LabelCameraBuffer, render.LabelDepth, render.LabelPipeline} {
		t.Run(label, func(t *testing.T) {
			rec := headless.New()
			boom := errors.New("boom")
			rec.FailCreate(label, boom)

			_, err := render.Initialize(rec.Device(), surfaceConfig, 2)
			assert.ErrorIs(t, err, boom)
			assert.Empty(t, rec.Live())
			assert.Zero(t, rec.DoubleReleases())
		})
	}

	_, err := render.Initialize(headless.New().Device(), surfaceConfig, 0)
	assert.Error(t, err)
}

func TestPipelineReleaseOrder(t *testing.T) {
	rec := headless.New()
	p, err := render.Initialize(rec.Device(), surfaceConfig, 1)
	require.NoError(t, err)
	rec.Reset()

	p.Release()
	assert.Equal(t, []string{
		render.LabelCameraGroup,
		render.LabelWorldGroup,
		render.LabelCameraBuffer,
		render.LabelWorldBuffer,
		render.LabelDepth,
		render.LabelSampler,
		render.LabelDiffuseLayout,
		render.LabelCameraLayout,
		render.LabelWorldLayout,
		render.LabelPipeline,
	}, labels(rec.OpsOf(headless.OpRelease)))
	assert.Empty(t, rec.Live())

	p.Release()
	assert.Zero(t, rec.DoubleReleases())
}

func TestRenderDrawsInCreationOrder(t *testing.T) {
	w := newTestWorld(t, 8, placed("a.obj", 1), placed("b.obj", 2), placed("a.obj", 3))
	require.NoError(t, w.sched.Once())

	assert.Equal(t, 2, w.loader.loads)

	var seq []headless.Op
	for _, op := range w.rec.OpsOf(headless.OpWriteBuffer, headless.OpDrawIndexed) {
		if op.Kind == headless.OpWriteBuffer && op.Label != render.LabelWorldBuffer {
			continue
		}
		seq = append(seq, op)
	}
	require.Len(t, seq, 6)
	for i := range 3 {
		write, draw := seq[2*i], seq[2*i+1]
		require.Equal(t, headless.OpWriteBuffer, write.Kind)
		require.Equal(t, headless.OpDrawIndexed, draw.Kind)
		assert.Equal(t, uint64(render.WorldOffset(i)), write.Offset)
		assert.Equal(t, float32(i+1), gpu.BytesMat4(write.Data).Col(3).X())
		assert.Equal(t, uint32(3), draw.IndexCount)
	}

	var worldBinds [][]uint32
	for _, op := range w.rec.OpsOf(headless.OpSetBindGroup) {
		if op.Group == 2 {
			worldBinds = append(worldBinds, op.Offsets)
		}
	}
	assert.Equal(t, [][]uint32{{0}, {256}, {512}}, worldBinds)

	begin := w.rec.OpsOf(headless.OpBeginPass)
	require.Len(t, begin, 1)
	assert.Equal(t, gpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}, begin[0].Clear)
	assert.Equal(t, 1, w.rec.Count(headless.OpSubmit))
	assert.Equal(t, 1, w.rec.Count(headless.OpPresent))
}

func TestRenderWritesCameraAfterPass(t *testing.T) {
	w := newTestWorld(t, 4, placed("a.obj", 0))
	require.NoError(t, w.sched.Once())

	ops := w.rec.OpsOf(headless.OpEndPass, headless.OpWriteBuffer, headless.OpSubmit)
	var camera []headless.Op
	for _, op := range ops {
		if op.Kind != headless.OpWriteBuffer || op.Label == render.LabelCameraBuffer {
			camera = append(camera, op)
		}
	}
	require.Len(t, camera, 3)
	assert.Equal(t, headless.OpEndPass, camera[0].Kind)
	assert.Equal(t, headless.OpWriteBuffer, camera[1].Kind)
	assert.Equal(t, headless.OpSubmit, camera[2].Kind)

	cam := render.NewCamera(render.DefaultCameraSettings(), float32(640)/480)
	assert.Equal(t, cam.Uniform, gpu.BytesMat4(camera[1].Data))
}

func TestRenderSurfaceLostReconfiguresOnce(t *testing.T) {
	w := newTestWorld(t, 4, placed("a.obj", 0), placed("a.obj", 1))
	configures := w.rec.Configures()
	w.rec.FailAcquire(gpu.ErrSurfaceLost)

	require.NoError(t, w.sched.Once())
	assert.Equal(t, configures+1, w.rec.Configures())
	assert.Equal(t, surfaceConfig, w.rec.SurfaceConfig())
	assert.Zero(t, w.rec.Count(headless.OpDrawIndexed))
	assert.Zero(t, w.rec.Count(headless.OpPresent))

	require.NoError(t, w.sched.Once())
	assert.Equal(t, configures+1, w.rec.Configures())
	assert.Equal(t, 2, w.rec.Count(headless.OpDrawIndexed))
}

func TestRenderAcquireErrors(t *testing.T) {
	w := newTestWorld(t, 4, placed("a.obj", 0))
	w.rec.FailAcquire(gpu.ErrSurfaceOutdated, gpu.ErrSurfaceTimeout, errors.New("driver hiccup"))

	configures := w.rec.Configures()
	for range 3 {
		require.NoError(t, w.sched.Once())
	}
	assert.Equal(t, configures+1, w.rec.Configures())
	assert.Zero(t, w.rec.Count(headless.OpDrawIndexed))

	w.rec.FailAcquire(gpu.ErrOutOfMemory)
	err := w.sched.Once()
	assert.ErrorIs(t, err, gpu.ErrOutOfMemory)
}

func TestRenderSkipsEntitiesBeyondSlots(t *testing.T) {
	w := newTestWorld(t, 2, placed("a.obj", 0), placed("a.obj", 1), placed("a.obj", 2))
	require.NoError(t, w.sched.Once())

	assert.Equal(t, 2, w.rec.Count(headless.OpDrawIndexed))
	assert.Equal(t, 3, w.storage.EntityCount()-1)
}

func TestRenderWithoutLoggerUsesProcessLogger(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	w := newTestWorld(t, 1, placed("a.obj", 0), placed("b.obj", 1))
	require.NoError(t, w.sched.Once())
	assert.Equal(t, 1, logs.FilterMessage("too many drawable entities").Len())
}

func TestRenderReleasesFrameObjects(t *testing.T) {
	w := newTestWorld(t, 2, placed("a.obj", 0))
	require.NoError(t, w.sched.Once())
	require.NoError(t, w.sched.Once())

	for _, h := range w.rec.Live() {
		assert.NotEqual(t, headless.OpAcquire, h.Kind)
		assert.NotEqual(t, headless.OpCreateEncoder, h.Kind)
		assert.NotEqual(t, headless.OpFinish, h.Kind)
	}

	models := ecs.GetSingleton[render.Models](w.storage)
	require.NotNil(t, models)
	assert.Equal(t, 1, models.Len())
	ecs.GetSingleton[render.Pipeline](w.storage).Release()
	models.Release()
	assert.Empty(t, w.rec.Live())
	assert.Zero(t, w.rec.DoubleReleases())
}

func TestResize(t *testing.T) {
	w := newTestWorld(t, 2, placed("a.obj", 0))
	require.NoError(t, w.sched.Once())
	configures := w.rec.Configures()

	cameraAspect := func() float32 {
		for c := range ecs.NewView[struct{ *render.Camera }](w.storage).Values() {
			return c.Camera.Aspect
		}
		t.Fatal("no camera")
		return 0
	}
	before := cameraAspect()
	depth := ecs.GetSingleton[render.Pipeline](w.storage).Depth
	textures := w.rec.Count(headless.OpCreateTexture)

	require.NoError(t, render.Resize(w.storage, 0, 300))
	require.NoError(t, render.Resize(w.storage, 300, 0))
	assert.Equal(t, configures, w.rec.Configures())
	assert.Same(t, depth, ecs.GetSingleton[render.Pipeline](w.storage).Depth)
	assert.Equal(t, textures, w.rec.Count(headless.OpCreateTexture))
	assert.Equal(t, surfaceConfig, ecs.GetSingleton[render.Display](w.storage).Config)
	assert.Equal(t, before, cameraAspect())

	require.NoError(t, render.Resize(w.storage, 800, 400))
	assert.Equal(t, configures+1, w.rec.Configures())
	assert.Equal(t, uint32(800), w.rec.SurfaceConfig().Width)
	assert.Equal(t, float32(2), cameraAspect())

	depths := 0
	for _, h := range w.rec.Live() {
		if h.Label == render.LabelDepth {
			depths++
			assert.Equal(t, uint32(800), h.Width)
			assert.Equal(t, uint32(400), h.Height)
		}
	}
	assert.Equal(t, 1, depths)
}

func TestSceneLoadFailureIsFatal(t *testing.T) {
	w := newTestWorld(t, 2)
	reg := asset.NewRegistry(t.TempDir(), nil, zap.NewNop())
	sched := ecs.NewScheduler(w.storage)
	require.NoError(t, sched.AddStage("scene", ecs.RunOnce))
	sched.MustRegister("scene", &render.SceneSystem{Loader: reg, Entities: []render.SceneEntity{placed("missing.obj", 0)}})

	p, err := render.Initialize(w.rec.Device(), surfaceConfig, 2)
	require.NoError(t, err)
	w.storage.AddSingleton(p)

	err = sched.Once()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.obj")
}
