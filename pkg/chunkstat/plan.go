package chunkstat

import "iter"

// chunksPerWorker controls the default chunk size: enough chunks that a slow
// chunk does not leave the rest of the pool idle.
const chunksPerWorker = 4

// Plan divides [0, totalLines) into contiguous chunks of at most chunkSize lines.
type Plan struct {
	totalLines uint64
	chunkSize  uint64
}

// NewPlan validates its inputs and returns a Plan. It does no I/O.
func NewPlan(totalLines, chunkSize uint64) (*Plan, error) {
	if totalLines == 0 {
		return nil, invalidConfig("total lines must be positive")
	}
	if chunkSize == 0 {
		return nil, invalidConfig("chunk size must be positive")
	}
	return &Plan{totalLines: totalLines, chunkSize: chunkSize}, nil
}

// DefaultChunkSize picks a chunk size that yields roughly parallelism*4 chunks
func DefaultChunkSize(totalLines uint64, parallelism int) uint64 {
	if parallelism < 1 {
		parallelism = 1
	}
	target := uint64(parallelism) * chunksPerWorker
	size := totalLines / target
	if totalLines%target != 0 {
		size++
	}
	return max(size, 1)
}

func (p *Plan) TotalLines() uint64 { return p.totalLines }
func (p *Plan) ChunkSize() uint64 { return p.chunkSize }

// Len returns the number of chunks
func (p *Plan) Len() int {
	n := p.totalLines / p.chunkSize
	if p.totalLines%p.chunkSize != 0 {
		n++
	}
	return int(n)
}

// At returns the i-th descriptor. The last one may be shorter than ChunkSize.
func (p *Plan) At(i int) ChunkDescriptor {
	start := uint64(i) * p.chunkSize
	return ChunkDescriptor{
		Index:     i,
		StartLine: start,
		Length:    min(p.chunkSize, p.totalLines-start),
	}
}

// All iterates the descriptors in order. It can be ranged over any number of times.
func (p *Plan) All() iter.Seq[ChunkDescriptor] {
	return func(yield func(ChunkDescriptor) bool) {
		for i := range p.Len() {
			if !yield(p.At(i)) {
				return
			}
		}
	}
}

// Descriptors materializes the plan
func (p *Plan) Descriptors() []ChunkDescriptor {
	out := make([]ChunkDescriptor, 0, p.Len())
	for d := range p.All() {
		out = append(out, d)
	}
	return out
}
