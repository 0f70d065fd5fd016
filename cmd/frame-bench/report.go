package main

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"text/template"
	"time"

	"github.com/plus3/cubeview/ecs"
)

type Report struct {
	// Configuration
	Duration time.Duration
	Entities int

	// Results
	TotalFrames    int64
	Draws          int64
	TotalTime      time.Duration
	FrameTime      Stats
	Systems        []ecs.SystemStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	P99     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
	s.P99 = percentile(s.Samples, 0.99)
}

// percentile returns the q-th sample of a sorted copy of samples.
func percentile(samples []time.Duration, q float64) time.Duration {
	sorted := append([]time.Duration(nil), samples...)
	slices.Sort(sorted)
	idx := int(q * float64(len(sorted)-1))
	return sorted[idx]
}

// DrawsPerFrame is the mean number of draw calls per measured frame.
func (r *Report) DrawsPerFrame() float64 {
	if r.TotalFrames == 0 {
		return 0
	}
	return float64(r.Draws) / float64(r.TotalFrames)
}

// FPS is the measured frame rate.
func (r *Report) FPS() float64 {
	if r.TotalTime <= 0 {
		return 0
	}
	return float64(r.TotalFrames) / r.TotalTime.Seconds()
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Frame Benchmark Report

## Configuration
- **Run Duration:** {{.Duration}}
- **Scene Entities:** {{.Entities}}

## Frame Results
- **Total Frames:** {{.TotalFrames}}
- **Total Time:** {{.TotalTime}}
- **Frames/s:** {{printf "%.1f" .FPS}}
- **Draws/frame:** {{printf "%.1f" .DrawsPerFrame}}
- **Frame Time:**
  - **Avg:** {{.FrameTime.Avg}}
  - **Min:** {{.FrameTime.Min}}
  - **Max:** {{.FrameTime.Max}}
  - **P99:** {{.FrameTime.P99}}

## Systems
| Stage | System | Runs | Avg | Max |
|---|---|---|---|---|
{{- range .Systems}}
| {{.Stage}} | {{.Name}} | {{.ExecutionCount}} | {{.AvgDuration}} | {{.MaxDuration}} |
{{- end}}

## Memory Usage
- Heap Alloc:     {{mb .MemStatsStart.HeapAlloc}} MiB (start) -> {{mb .MemStatsEnd.HeapAlloc}} MiB (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}} B
- Total Alloc:    {{mb .MemStatsStart.TotalAlloc}} MiB (start) -> {{mb .MemStatsEnd.TotalAlloc}} MiB (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}} B
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}

{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{nsub .MemStatsEnd.PauseTotalNs .MemStatsStart.PauseTotalNs}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}
`

	fm := template.FuncMap{
		"mb": func(v uint64) string {
			return fmt.Sprintf("%.2f", float64(v)/1024/1024)
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"nsub": func(a, b uint64) string {
			return time.Duration(a - b).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
