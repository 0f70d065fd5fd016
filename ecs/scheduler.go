package ecs

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrAccessConflict is returned by Register when a system would write a
	// type another system of the same stage touches, or touch a type one writes.
	ErrAccessConflict = errors.New("ecs: conflicting access in stage")
	// ErrStageOrder is returned by AddStage when a run-once stage follows a
	// per-tick stage, or a stage name is reused.
	ErrStageOrder = errors.New("ecs: invalid stage order")
	// ErrUnknownStage is returned by Register for a stage that was never added.
	ErrUnknownStage = errors.New("ecs: unknown stage")
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Ticks           uint64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Stage          string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	stage          string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (st *systemStatsInternal) record(d time.Duration) {
	st.executionCount++
	st.lastDuration = d
	st.totalDuration += d
	if d < st.minDuration {
		st.minDuration = d
	}
	if d > st.maxDuration {
		st.maxDuration = d
	}
}

// StageOption configures a stage when it is added.
type StageOption func(*stage)

// RunOnce marks a stage as a startup stage: it runs on the first tick only,
// before every per-tick stage.
var RunOnce StageOption = func(s *stage) { s.once = true }

type queryField interface {
	Execute()
	invalidateCache()
}

type accessor interface {
	accessTypes() []reflect.Type
}

type registeredSystem struct {
	system  System
	queries []queryField
	reads   map[reflect.Type]struct{}
	writes  map[reflect.Type]struct{}
	stats   *systemStatsInternal
}

type stage struct {
	name    string
	once    bool
	systems []*registeredSystem
}

// Scheduler runs systems grouped into named stages. Stages run in the order
// they were added; systems inside a stage may run concurrently.
type Scheduler struct {
	storage *Storage
	stages  []*stage
	byName  map[string]*stage
	ticks   uint64
}

// NewScheduler creates a new scheduler for the given storage.
func NewScheduler(storage *Storage) *Scheduler {
	return &Scheduler{
		storage: storage,
		byName:  make(map[string]*stage),
	}
}

// AddStage appends a stage. Run-once stages must all come before the first
// per-tick stage.
func (s *Scheduler) AddStage(name string, opts ...StageOption) error {
	if _, ok := s.byName[name]; ok {
		return fmt.Errorf("%w: stage %q already exists", ErrStageOrder, name)
	}
	st := &stage{name: name}
	for _, opt := range opts {
		opt(st)
	}
	if st.once {
		for _, prev := range s.stages {
			if !prev.once {
				return fmt.Errorf("%w: run-once stage %q after per-tick stage %q", ErrStageOrder, name, prev.name)
			}
		}
	}
	s.stages = append(s.stages, st)
	s.byName[name] = st
	return nil
}

// Stages returns the stage names in run order.
func (s *Scheduler) Stages() []string {
	names := make([]string, len(s.stages))
	for i, st := range s.stages {
		names[i] = st.name
	}
	return names
}

// Register adds a system to a stage, initializes its Query and Singleton
// fields and checks its access against the systems already in that stage.
func (s *Scheduler) Register(stageName string, system System) error {
	st, ok := s.byName[stageName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStage, stageName)
	}

	rs := &registeredSystem{
		system: system,
		reads:  make(map[reflect.Type]struct{}),
		writes: make(map[reflect.Type]struct{}),
		stats: &systemStatsInternal{
			name:        systemName(system),
			stage:       stageName,
			minDuration: time.Duration(1<<63 - 1),
		},
	}
	s.initializeFields(rs)
	if d, ok := system.(AccessDeclarer); ok {
		access := d.DeclareAccess()
		for _, t := range access.Reads {
			rs.reads[t] = struct{}{}
		}
		for _, t := range access.Writes {
			rs.writes[t] = struct{}{}
		}
	}

	for _, other := range st.systems {
		if t, ok := conflict(rs, other); ok {
			return fmt.Errorf("%w %q: %s and %s both touch %s",
				ErrAccessConflict, stageName, rs.stats.name, other.stats.name, t)
		}
	}

	st.systems = append(st.systems, rs)
	return nil
}

// MustRegister is Register for static setup code; it panics on error.
func (s *Scheduler) MustRegister(stageName string, system System) {
	if err := s.Register(stageName, system); err != nil {
		panic(err)
	}
}

func conflict(a, b *registeredSystem) (reflect.Type, bool) {
	for t := range a.writes {
		if _, ok := b.writes[t]; ok {
			return t, true
		}
		if _, ok := b.reads[t]; ok {
			return t, true
		}
	}
	for t := range b.writes {
		if _, ok := a.reads[t]; ok {
			return t, true
		}
	}
	return nil, false
}

func systemName(system System) string {
	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	if name := systemType.Name(); name != "" {
		return name
	}
	return systemType.String()
}

func (s *Scheduler) initializeFields(rs *registeredSystem) {
	systemValue := reflect.ValueOf(rs.system)
	if systemValue.Kind() == reflect.Ptr {
		systemValue = systemValue.Elem()
	}

	if systemValue.Kind() != reflect.Struct {
		return
	}

	systemType := systemValue.Type()

	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		fieldType := systemType.Field(i)

		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}

		typeName := field.Type().Name()
		isQuery := strings.HasPrefix(typeName, "Query[")
		if !isQuery && !strings.HasPrefix(typeName, "Singleton[") {
			continue
		}

		initMethod := field.Addr().MethodByName("Init")
		if !initMethod.IsValid() {
			panic("Init method not found on field: " + fieldType.Name)
		}
		initMethod.Call([]reflect.Value{
			reflect.ValueOf(s.storage),
		})

		readOnly := fieldType.Tag.Get("ecs") == "read"
		if acc, ok := field.Addr().Interface().(accessor); ok {
			for _, t := range acc.accessTypes() {
				if readOnly {
					rs.reads[t] = struct{}{}
				} else {
					rs.writes[t] = struct{}{}
				}
			}
		}

		if isQuery {
			if q, ok := field.Addr().Interface().(queryField); ok {
				rs.queries = append(rs.queries, q)
			}
		}
	}
}

// Once runs one tick. The first tick runs the run-once stages before the
// per-tick ones. The first system error stops the tick and is returned.
func (s *Scheduler) Once() error {
	first := s.ticks == 0
	s.ticks++
	for _, st := range s.stages {
		if st.once && !first {
			continue
		}
		if err := s.runStage(st); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runStage(st *stage) error {
	if len(st.systems) == 0 {
		return nil
	}

	for _, rs := range st.systems {
		for _, q := range rs.queries {
			q.Execute()
		}
	}

	frames := make([]*UpdateFrame, len(st.systems))
	for i := range st.systems {
		frames[i] = newUpdateFrame(s.ticks, st.name, s.storage)
	}

	var err error
	if len(st.systems) == 1 {
		err = s.runSystem(st, st.systems[0], frames[0])
	} else {
		var g errgroup.Group
		for i, rs := range st.systems {
			g.Go(func() error {
				return s.runSystem(st, rs, frames[i])
			})
		}
		err = g.Wait()
	}

	for _, rs := range st.systems {
		for _, q := range rs.queries {
			q.invalidateCache()
		}
	}
	if err != nil {
		return err
	}

	for _, frame := range frames {
		frame.Commands.Flush(s.storage)
	}
	return nil
}

func (s *Scheduler) runSystem(st *stage, rs *registeredSystem, frame *UpdateFrame) error {
	start := time.Now()
	err := rs.system.Execute(frame)
	rs.stats.record(time.Since(start))
	if err != nil {
		return fmt.Errorf("stage %s: system %s: %w", st.name, rs.stats.name, err)
	}
	return nil
}

// Run executes ticks at the given interval until the context is cancelled or
// a tick fails.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Once(); err != nil {
				return err
			}
		}
	}
}

// Ticks returns the number of ticks started so far.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks
}

// Stats returns statistics about system execution.
func (s *Scheduler) Stats() *SchedulerStats {
	stats := &SchedulerStats{Ticks: s.ticks}

	for _, st := range s.stages {
		for _, rs := range st.systems {
			internal := rs.stats
			avgDuration := time.Duration(0)
			minDuration := internal.minDuration
			if internal.executionCount > 0 {
				avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
			} else {
				minDuration = 0
			}

			stats.Systems = append(stats.Systems, SystemStats{
				Name:           internal.name,
				Stage:          internal.stage,
				ExecutionCount: internal.executionCount,
				MinDuration:    minDuration,
				MaxDuration:    internal.maxDuration,
				AvgDuration:    avgDuration,
				LastDuration:   internal.lastDuration,
				TotalDuration:  internal.totalDuration,
			})
			stats.TotalExecutions += internal.executionCount
		}
	}

	stats.SystemCount = len(stats.Systems)
	return stats
}
