package ecs_test

import (
	"testing"

	"github.com/plus3/cubeview/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movable struct {
	*Position
	*Velocity
}

func TestViewGet(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	view := ecs.NewView[movable](storage)

	id := storage.Spawn(Position{X: 1}, Velocity{DX: 2})
	still := storage.Spawn(Position{X: 5})

	got := view.Get(id)
	require.NotNil(t, got)
	assert.Equal(t, float32(1), got.Position.X)
	assert.Equal(t, float32(2), got.Velocity.DX)

	assert.Nil(t, view.Get(still))
	assert.Nil(t, view.Get(ecs.EntityId(999)))
}

func TestViewFillMutates(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	view := ecs.NewView[movable](storage)
	id := storage.Spawn(Position{X: 1}, Velocity{DX: 2})

	var m movable
	require.True(t, view.Fill(id, &m))
	m.Position.X += m.Velocity.DX

	assert.Equal(t, float32(3), ecs.ReadComponent[Position](storage, id).X)
}

func TestViewIterCreationOrder(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	view := ecs.NewView[movable](storage)

	var want []ecs.EntityId
	for i := 0; i < 200; i++ {
		if i%3 == 0 {
			storage.Spawn(Position{X: float32(i)})
			continue
		}
		want = append(want, storage.Spawn(Position{X: float32(i)}, Velocity{}))
	}
	// free some slots so later entities land in recycled positions
	storage.Delete(want[0])
	storage.Delete(want[1])
	want = want[2:]
	want = append(want, storage.Spawn(Position{}, Velocity{}))

	var got []ecs.EntityId
	for id := range view.Iter() {
		got = append(got, id)
	}
	assert.Equal(t, want, got)
}

func TestViewIterEarlyBreak(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	view := ecs.NewView[struct{ *Position }](storage)
	for i := 0; i < 10; i++ {
		storage.Spawn(Position{X: float32(i)})
	}

	count := 0
	for range view.Values() {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestViewUnknownStoreMatchesNothing(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	storage.Spawn(Position{})

	view := ecs.NewView[struct {
		*Position
		*Health
	}](storage)

	for range view.Iter() {
		t.Fatal("no entity has Health")
	}
}

func TestViewOptional(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	type withOptional struct {
		*Position
		Health *Health `ecs:"optional"`
	}
	view := ecs.NewView[withOptional](storage)

	a := storage.Spawn(Position{X: 1})
	b := storage.Spawn(Position{X: 2}, Health{Current: 5})

	results := map[ecs.EntityId]withOptional{}
	for id, v := range view.Iter() {
		results[id] = v
	}

	require.Len(t, results, 2)
	assert.Nil(t, results[a].Health)
	require.NotNil(t, results[b].Health)
	assert.Equal(t, 5, results[b].Health.Current)
}

func TestViewAllOptionalWalksEveryEntity(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	view := ecs.NewView[struct {
		Name *Name `ecs:"optional"`
	}](storage)

	storage.Spawn(Position{})
	storage.Spawn(Name("x"))

	count := 0
	for range view.Iter() {
		count++
	}
	assert.Equal(t, 2, count)
}

func TestViewEntityIdField(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	view := ecs.NewView[struct {
		ecs.EntityId
		*Position
	}](storage)

	id := storage.Spawn(Position{})
	got := view.Get(id)
	require.NotNil(t, got)
	assert.Equal(t, id, got.EntityId)
}

func TestViewInvalidTag(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	assert.Panics(t, func() {
		ecs.NewView[struct {
			Position *Position `ecs:"sometimes"`
		}](storage)
	})
	assert.Panics(t, func() {
		ecs.NewView[struct{ X int }](storage)
	})
}

func TestViewSpawn(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	type spawnable struct {
		*Position
		Health *Health `ecs:"optional"`
	}
	view := ecs.NewView[spawnable](storage)

	id := view.Spawn(spawnable{Position: &Position{X: 9}})
	assert.Equal(t, float32(9), ecs.ReadComponent[Position](storage, id).X)
	assert.Nil(t, ecs.ReadComponent[Health](storage, id))

	assert.Panics(t, func() { view.Spawn(spawnable{}) })
}
