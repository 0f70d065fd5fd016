package ecs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/plus3/cubeview/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MovementSystem struct {
	Entities ecs.Query[struct {
		*Position
		Velocity *Velocity `ecs:"optional"`
	}]
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) error {
	for e := range s.Entities.Values() {
		if e.Velocity == nil {
			continue
		}
		e.Position.X += e.Velocity.DX
		e.Position.Y += e.Velocity.DY
	}
	return nil
}

type HealthSystem struct {
	Entities ecs.Query[struct{ *Health }]
}

func (s *HealthSystem) Execute(frame *ecs.UpdateFrame) error {
	for e := range s.Entities.Values() {
		if e.Health.Current < e.Health.Max {
			e.Health.Current++
		}
	}
	return nil
}

type recorder struct {
	mu  sync.Mutex
	log []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, s)
}

func logSystem(r *recorder, name string) ecs.SystemFunc {
	return func(frame *ecs.UpdateFrame) error {
		r.add(frame.Stage + ":" + name)
		return nil
	}
}

func newStagedScheduler(t *testing.T, storage *ecs.Storage) *ecs.Scheduler {
	t.Helper()
	s := ecs.NewScheduler(storage)
	require.NoError(t, s.AddStage("startup", ecs.RunOnce))
	require.NoError(t, s.AddStage("first"))
	require.NoError(t, s.AddStage("update"))
	require.NoError(t, s.AddStage("render"))
	return s
}

func TestSchedulerRunsSystems(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	moving := storage.Spawn(Position{}, Velocity{DX: 1, DY: 2})
	hurt := storage.Spawn(Health{Current: 1, Max: 3})

	s := newStagedScheduler(t, storage)
	require.NoError(t, s.Register("update", &MovementSystem{}))
	require.NoError(t, s.Register("update", &HealthSystem{}))

	require.NoError(t, s.Once())
	require.NoError(t, s.Once())

	assert.Equal(t, Position{X: 2, Y: 4}, *ecs.ReadComponent[Position](storage, moving))
	assert.Equal(t, 3, ecs.ReadComponent[Health](storage, hurt).Current)
}

func TestSchedulerStageOrderAndRunOnce(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	s := newStagedScheduler(t, storage)
	r := &recorder{}

	// registered out of order on purpose
	s.MustRegister("render", logSystem(r, "draw"))
	s.MustRegister("update", logSystem(r, "camera"))
	s.MustRegister("startup", logSystem(r, "init"))
	s.MustRegister("first", logSystem(r, "clock"))

	require.NoError(t, s.Once())
	require.NoError(t, s.Once())

	assert.Equal(t, []string{
		"startup:init", "first:clock", "update:camera", "render:draw",
		"first:clock", "update:camera", "render:draw",
	}, r.log)
	assert.Equal(t, []string{"startup", "first", "update", "render"}, s.Stages())
	assert.Equal(t, uint64(2), s.Ticks())
}

func TestSchedulerStageErrors(t *testing.T) {
	s := ecs.NewScheduler(ecs.NewStorage(newTestRegistry()))
	require.NoError(t, s.AddStage("first"))

	assert.ErrorIs(t, s.AddStage("startup", ecs.RunOnce), ecs.ErrStageOrder)
	assert.ErrorIs(t, s.AddStage("first"), ecs.ErrStageOrder)
	assert.ErrorIs(t, s.Register("nope", logSystem(&recorder{}, "x")), ecs.ErrUnknownStage)
}

type positionWriter struct {
	Entities ecs.Query[struct{ *Position }]
}

func (s *positionWriter) Execute(*ecs.UpdateFrame) error { return nil }

type positionReader struct {
	Entities ecs.Query[struct{ *Position }] `ecs:"read"`
}

func (s *positionReader) Execute(*ecs.UpdateFrame) error { return nil }

type tallyReader struct {
	Tally ecs.Singleton[Tally] `ecs:"read"`
}

func (s *tallyReader) Execute(*ecs.UpdateFrame) error { return nil }

type tallyDeclarer struct{}

func (tallyDeclarer) Execute(*ecs.UpdateFrame) error { return nil }
func (tallyDeclarer) DeclareAccess() ecs.Access     { return ecs.Writes[Tally]() }

func TestSchedulerAccessConflicts(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	s := newStagedScheduler(t, storage)

	require.NoError(t, s.Register("update", &positionReader{}))
	require.NoError(t, s.Register("update", &positionReader{}))
	assert.ErrorIs(t, s.Register("update", &positionWriter{}), ecs.ErrAccessConflict)

	require.NoError(t, s.Register("first", &positionWriter{}))
	assert.ErrorIs(t, s.Register("first", &positionReader{}), ecs.ErrAccessConflict)
	assert.ErrorIs(t, s.Register("first", &positionWriter{}), ecs.ErrAccessConflict)

	require.NoError(t, s.Register("render", &tallyReader{}))
	require.NoError(t, s.Register("render", &tallyReader{}))
	assert.ErrorIs(t, s.Register("render", tallyDeclarer{}), ecs.ErrAccessConflict)
}

func TestSchedulerFlushesInRegistrationOrder(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	s := newStagedScheduler(t, storage)
	r := &recorder{}

	for _, name := range []string{"a", "b", "c", "d"} {
		s.MustRegister("update", ecs.SystemFunc(func(frame *ecs.UpdateFrame) error {
			frame.Commands.Defer(func() { r.add(name) })
			frame.Commands.Spawn(Name(name))
			return nil
		}))
	}
	require.NoError(t, s.Once())

	assert.Equal(t, []string{"a", "b", "c", "d"}, r.log)

	view := ecs.NewView[struct{ *Name }](storage)
	var names []Name
	for v := range view.Values() {
		names = append(names, *v.Name)
	}
	assert.Equal(t, []Name{"a", "b", "c", "d"}, names)
}

func TestSchedulerStageSeesPreviousStageCommands(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	s := newStagedScheduler(t, storage)

	s.MustRegister("startup", ecs.SystemFunc(func(frame *ecs.UpdateFrame) error {
		frame.Commands.InsertSingleton(Tally{Count: 10})
		frame.Commands.Spawn(Position{X: 1})
		return nil
	}))

	seen := 0
	s.MustRegister("first", &countingSystem{onExecute: func(c *countingSystem) {
		if tally := c.Tally.Get(); tally != nil {
			seen = tally.Count + c.Entities.Len()
		}
	}})

	require.NoError(t, s.Once())
	assert.Equal(t, 11, seen)
}

type countingSystem struct {
	Tally     ecs.Singleton[Tally]
	Entities  ecs.Query[struct{ *Position }]
	onExecute func(*countingSystem)
}

func (c *countingSystem) Execute(*ecs.UpdateFrame) error {
	c.onExecute(c)
	return nil
}

func TestSchedulerErrorStopsTick(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	s := newStagedScheduler(t, storage)
	r := &recorder{}
	boom := errors.New("boom")

	s.MustRegister("update", ecs.SystemFunc(func(frame *ecs.UpdateFrame) error {
		frame.Commands.Spawn(Position{})
		return boom
	}))
	s.MustRegister("render", logSystem(r, "draw"))

	err := s.Once()
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "stage update")
	assert.Empty(t, r.log)
	assert.Equal(t, 0, storage.EntityCount())
}

func TestSchedulerStats(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	s := newStagedScheduler(t, storage)
	require.NoError(t, s.Register("update", &MovementSystem{}))
	require.NoError(t, s.Register("render", &HealthSystem{}))

	stats := s.Stats()
	assert.Equal(t, 2, stats.SystemCount)
	assert.Equal(t, time.Duration(0), stats.Systems[0].MinDuration)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Once())
	}

	stats = s.Stats()
	assert.Equal(t, int64(10), stats.TotalExecutions)
	assert.Equal(t, uint64(5), stats.Ticks)
	assert.Equal(t, "MovementSystem", stats.Systems[0].Name)
	assert.Equal(t, "update", stats.Systems[0].Stage)
	assert.Equal(t, int64(5), stats.Systems[1].ExecutionCount)
	assert.LessOrEqual(t, stats.Systems[1].MinDuration, stats.Systems[1].MaxDuration)
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	s := newStagedScheduler(t, storage)

	ctx, cancel := context.WithCancel(context.Background())
	s.MustRegister("update", ecs.SystemFunc(func(frame *ecs.UpdateFrame) error {
		if frame.Tick == 3 {
			cancel()
		}
		return nil
	}))

	require.NoError(t, s.Run(ctx, time.Millisecond))
	assert.GreaterOrEqual(t, s.Ticks(), uint64(3))
}

func TestSchedulerRunReturnsError(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	s := newStagedScheduler(t, storage)
	boom := errors.New("boom")
	s.MustRegister("render", ecs.SystemFunc(func(*ecs.UpdateFrame) error { return boom }))

	assert.ErrorIs(t, s.Run(context.Background(), time.Millisecond), boom)
}
