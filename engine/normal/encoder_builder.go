package normal

// EncoderBuilderOption is a functional option for configuring an Encoder via NewEncoder.
type EncoderBuilderOption func(*encoder)

// WithWorkers is an option builder that sets the maximum number of pool workers.
//
// Parameters:
//   - n: worker count, values below 1 are ignored
//
// Returns:
//   - EncoderBuilderOption: a function that applies the workers option to an encoder
func WithWorkers(n int) EncoderBuilderOption {
	return func(e *encoder) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithChunkSize is an option builder that sets how many triangles one pool task encodes.
//
// Parameters:
//   - n: triangles per task, values below 1 are ignored
//
// Returns:
//   - EncoderBuilderOption: a function that applies the chunk size option to an encoder
func WithChunkSize(n int) EncoderBuilderOption {
	return func(e *encoder) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithProgress is an option builder that sets a callback invoked after each chunk completes.
// The callback may be called from several goroutines, but never concurrently.
//
// Parameters:
//   - fn: receives the number of triangles encoded so far and the total
//
// Returns:
//   - EncoderBuilderOption: a function that applies the progress option to an encoder
func WithProgress(fn func(done, total int)) EncoderBuilderOption {
	return func(e *encoder) {
		e.progress = fn
	}
}
