package profiler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAccumulates(t *testing.T) {
	p := NewProfiler()
	p.Record("encode", 2*time.Millisecond)
	p.Record("shade", time.Millisecond)
	p.Record("encode", 4*time.Millisecond)

	stages := p.Stages()
	require.Len(t, stages, 2)
	assert.Equal(t, "encode", stages[0].Name)
	assert.Equal(t, 2, stages[0].Count)
	assert.Equal(t, 6*time.Millisecond, stages[0].Total)
	assert.Equal(t, 4*time.Millisecond, stages[0].Max)
	assert.Equal(t, 3*time.Millisecond, stages[0].Mean())
	assert.Equal(t, "shade", stages[1].Name)
}

func TestStartIsConcurrent(t *testing.T) {
	p := NewProfiler()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Start("rows")()
		}()
	}
	wg.Wait()
	stages := p.Report()
	require.Len(t, stages, 1)
	assert.Equal(t, 16, stages[0].Count)
}

func TestNilProfiler(t *testing.T) {
	var p *Profiler
	assert.NotPanics(t, func() {
		p.Start("x")()
		p.Record("x", time.Second)
		assert.Nil(t, p.Stages())
		assert.Nil(t, p.Report())
	})
	assert.Zero(t, StageStats{}.Mean())
}
