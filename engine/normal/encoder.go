package normal

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/geometry"
	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

const defaultChunkSize = 4096

// encoder is the implementation of the Encoder interface.
type encoder struct {
	workers   int
	chunkSize int
	progress  func(done, total int)
	pool      worker.DynamicWorkerPool
}

// Encoder compresses the vertex normals of whole meshes on the host, once per mesh load,
// before any record is read by the fragment stage.
type Encoder interface {
	// EncodeGeometry produces one TriNormals record per triangle.
	// Triangles are split into chunks and encoded on a worker pool.
	//
	// Parameters:
	//   - ctx: cancels outstanding chunks
	//   - g: the geometry, validated before encoding
	//
	// Returns:
	//   - []TriNormals: records in triangle order
	//   - error: a validation error or ctx.Err()
	EncodeGeometry(ctx context.Context, g *geometry.Geometry) ([]TriNormals, error)

	// EncodeIndexed produces one IndexedTriNormals record per triangle, all referencing the
	// same transform table entry.
	//
	// Parameters:
	//   - ctx: cancels outstanding chunks
	//   - g: the geometry
	//   - transformIndex: index into the per-instance transform table
	//
	// Returns:
	//   - []IndexedTriNormals: records in triangle order
	//   - error: a validation error or ctx.Err()
	EncodeIndexed(ctx context.Context, g *geometry.Geometry, transformIndex uint32) ([]IndexedTriNormals, error)

	// EncodeVertices produces one reference OctNormal per vertex.
	//
	// Parameters:
	//   - normals: unit vertex normals
	//
	// Returns:
	//   - []OctNormal: records in vertex order
	EncodeVertices(normals []layout.PackedFloat3) []OctNormal
}

var _ Encoder = &encoder{}

// NewEncoder creates an Encoder backed by a dynamic worker pool.
//
// Parameters:
//   - opts: functional options
//
// Returns:
//   - Encoder: the encoder
func NewEncoder(opts ...EncoderBuilderOption) Encoder {
	e := &encoder{
		workers:   runtime.NumCPU(),
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.pool = worker.NewDynamicWorkerPool(e.workers, 256, 1*time.Second)
	return e
}

func (e *encoder) EncodeGeometry(ctx context.Context, g *geometry.Geometry) ([]TriNormals, error) {
	out := make([]TriNormals, g.TriangleCount())
	err := e.run(ctx, g, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = FromGeometry(g, i)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *encoder) EncodeIndexed(ctx context.Context, g *geometry.Geometry, transformIndex uint32) ([]IndexedTriNormals, error) {
	out := make([]IndexedTriNormals, g.TriangleCount())
	err := e.run(ctx, g, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = FromGeometry(g, i).Indexed(transformIndex)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *encoder) EncodeVertices(normals []layout.PackedFloat3) []OctNormal {
	out := make([]OctNormal, len(normals))
	for i, n := range normals {
		out[i] = OctNormal{Encoded: EncodeOctNormal(n)}
	}
	return out
}

// run validates the geometry and calls fn over disjoint triangle ranges on the pool.
// Each chunk writes only its own range, so no locking is needed on the output.
func (e *encoder) run(ctx context.Context, g *geometry.Geometry, fn func(lo, hi int)) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("encode normals: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	total := g.TriangleCount()
	start := time.Now()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		done   int
		taskID int
	)
	for lo := 0; lo < total; lo += e.chunkSize {
		hi := min(lo+e.chunkSize, total)
		wg.Add(1)
		id := taskID
		taskID++
		e.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				fn(lo, hi)
				if e.progress != nil {
					mu.Lock()
					done += hi - lo
					e.progress(done, total)
					mu.Unlock()
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	common.Logger().Debug("encoded triangle normals",
		"triangles", total,
		"chunks", taskID,
		"elapsed", time.Since(start))
	return nil
}
