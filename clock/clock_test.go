package clock_test

import (
	"testing"
	"time"

	"github.com/plus3/cubeview/clock"
	"github.com/plus3/cubeview/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTime struct {
	t time.Time
}

func (f *fakeTime) now() time.Time { return f.t }

func TestFirstDeltaIsSinceConstruction(t *testing.T) {
	ft := &fakeTime{t: time.Unix(100, 0)}
	c := clock.New(ft.now)

	ft.t = ft.t.Add(250 * time.Millisecond)
	c.Tick()

	assert.Equal(t, 250*time.Millisecond, c.Delta)
	assert.InDelta(t, 0.25, c.DeltaSeconds(), 1e-6)
	assert.Equal(t, 250*time.Millisecond, c.Elapsed())
}

func TestDeltaNeverNegative(t *testing.T) {
	ft := &fakeTime{t: time.Unix(100, 0)}
	c := clock.New(ft.now)

	steps := []time.Duration{10 * time.Millisecond, -time.Second, 0, 5 * time.Millisecond, -time.Nanosecond}
	for _, step := range steps {
		ft.t = ft.t.Add(step)
		c.Tick()
		assert.GreaterOrEqual(t, c.Delta, time.Duration(0))
	}
}

func TestDeltaBetweenSamples(t *testing.T) {
	start := time.Unix(0, 0)
	c := clock.New(func() time.Time { return start })

	c.Advance(start.Add(time.Second))
	c.Advance(start.Add(1500 * time.Millisecond))

	assert.Equal(t, 500*time.Millisecond, c.Delta)
}

func TestRealClock(t *testing.T) {
	c := clock.New(nil)
	c.Tick()
	assert.GreaterOrEqual(t, c.Delta, time.Duration(0))
	assert.False(t, c.Last.IsZero())
}

func TestSystemTicksSingleton(t *testing.T) {
	ft := &fakeTime{t: time.Unix(10, 0)}
	storage := ecs.NewStorage(ecs.NewComponentRegistry())
	storage.AddSingleton(clock.New(ft.now))

	s := ecs.NewScheduler(storage)
	require.NoError(t, s.AddStage("first"))
	require.NoError(t, s.Register("first", &clock.System{}))

	ft.t = ft.t.Add(16 * time.Millisecond)
	require.NoError(t, s.Once())

	assert.Equal(t, 16*time.Millisecond, ecs.GetSingleton[clock.Clock](storage).Delta)
}
