// Package headless is a gpu backend that records every call instead of
// talking to a device. Tests inspect the recorded Op log; the frame benchmark
// uses it to run the full frame without a window.
package headless

import (
	"fmt"
	"sync"

	"github.com/plus3/cubeview/gpu"
)

// OpKind names a recorded call.
type OpKind string

const (
	OpCreateBuffer    OpKind = "create_buffer"
	OpCreateTexture   OpKind = "create_texture"
	OpCreateSampler   OpKind = "create_sampler"
	OpCreateLayout    OpKind = "create_bind_group_layout"
	OpCreateBindGroup OpKind = "create_bind_group"
	OpCreatePipeline  OpKind = "create_pipeline"
	OpCreateEncoder   OpKind = "create_encoder"
	OpWriteBuffer     OpKind = "write_buffer"
	OpWriteTexture    OpKind = "write_texture"
	OpConfigure       OpKind = "configure"
	OpAcquire         OpKind = "acquire"
	OpBeginPass       OpKind = "begin_pass"
	OpSetPipeline     OpKind = "set_pipeline"
	OpSetBindGroup    OpKind = "set_bind_group"
	OpSetVertexBuffer OpKind = "set_vertex_buffer"
	OpSetIndexBuffer  OpKind = "set_index_buffer"
	OpDrawIndexed     OpKind = "draw_indexed"
	OpEndPass         OpKind = "end_pass"
	OpFinish          OpKind = "finish"
	OpSubmit          OpKind = "submit"
	OpPresent         OpKind = "present"
	OpRelease         OpKind = "release"
)

// Op is one recorded call. Only the fields relevant to Kind are set.
type Op struct {
	Kind       OpKind
	Label      string
	Handle     *Handle
	Offset     uint64
	Data       []byte
	Group      uint32
	Offsets    []uint32
	IndexCount uint32
	Clear      gpu.Color
	Config     gpu.SurfaceConfig
}

// Handle is every object the recorder hands out. Buffers keep their
// contents so tests can read back uniform writes.
type Handle struct {
	ID       int
	Kind     OpKind
	Label    string
	Data     []byte
	Width    uint32
	Height   uint32
	Released bool

	rec *Recorder
}

func (h *Handle) Release() {
	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()
	if h.Released {
		h.rec.doubleReleases++
	}
	h.Released = true
	h.rec.appendLocked(Op{Kind: OpRelease, Label: h.Label, Handle: h})
}

// Recorder is the shared call log behind a Device, Queue and Surface.
type Recorder struct {
	mu             sync.Mutex
	ops            []Op
	nextID         int
	live           map[int]*Handle
	doubleReleases int
	failOn         map[string]error
	acquireErrs    []error
	configures     int
	surface        gpu.SurfaceConfig
}

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{
		live:   make(map[int]*Handle),
		failOn: make(map[string]error),
	}
}

// Device returns a gpu.Device that records into r.
func (r *Recorder) Device() *Device { return &Device{rec: r} }

// Queue returns a gpu.Queue that records into r.
func (r *Recorder) Queue() *Queue { return &Queue{rec: r} }

// Surface returns a gpu.Surface that records into r.
func (r *Recorder) Surface() *Surface { return &Surface{rec: r} }

// FailCreate makes the next creation of an object labelled label fail with err.
func (r *Recorder) FailCreate(label string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOn[label] = err
}

// FailAcquire queues errors returned by the next Acquire calls, one per call.
func (r *Recorder) FailAcquire(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acquireErrs = append(r.acquireErrs, errs...)
}

// Ops returns a copy of the log.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// OpsOf returns the recorded ops of the given kinds, in order.
func (r *Recorder) OpsOf(kinds ...OpKind) []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Op
	for _, op := range r.ops {
		for _, k := range kinds {
			if op.Kind == k {
				out = append(out, op)
				break
			}
		}
	}
	return out
}

// Count returns how many ops of kind were recorded.
func (r *Recorder) Count(kind OpKind) int {
	return len(r.OpsOf(kind))
}

// Reset clears the log but keeps live handles and surface state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = nil
}

// Configures returns how many times the surface was configured.
func (r *Recorder) Configures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.configures
}

// SurfaceConfig returns the most recent surface configuration.
func (r *Recorder) SurfaceConfig() gpu.SurfaceConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surface
}

// Live returns the handles that were created and not yet released.
func (r *Recorder) Live() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Handle
	for i := 1; i <= r.nextID; i++ {
		if h, ok := r.live[i]; ok && !h.Released {
			out = append(out, h)
		}
	}
	return out
}

// DoubleReleases counts Release calls on already released handles.
func (r *Recorder) DoubleReleases() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doubleReleases
}

func (r *Recorder) appendLocked(op Op) {
	r.ops = append(r.ops, op)
}

func (r *Recorder) record(op Op) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(op)
}

func (r *Recorder) create(kind OpKind, label string, init func(h *Handle)) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failOn[label]; ok {
		delete(r.failOn, label)
		return nil, fmt.Errorf("headless: create %s %q: %w", kind, label, err)
	}
	r.nextID++
	h := &Handle{ID: r.nextID, Kind: kind, Label: label, rec: r}
	if init != nil {
		init(h)
	}
	r.live[h.ID] = h
	r.appendLocked(Op{Kind: kind, Label: label, Handle: h})
	return h, nil
}

func asHandle(v any) *Handle {
	h, _ := v.(*Handle)
	return h
}
