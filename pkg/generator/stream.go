// pkg/generator/stream.go
package generator

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
)

// Rand is the subset of a random stream the generator draws from.
// *Stream satisfies it. Continuous draws go through Uint64.
type Rand interface {
	Uint64() uint64
	IntN(n int) int
	Read(p []byte) (int, error)
}

// stream domains keep record streams and named streams from colliding
const (
	domainRecord uint64 = 0x7265636f7264 // "record"
	domainNamed  uint64 = 0x6e616d6564   // "named"
)

// Source derives independent, reproducible random streams from one seed
type Source struct {
	seed uint64
}

// NewSource creates a stream source for a seed
func NewSource(seed uint64) Source {
	return Source{seed: seed}
}

// Seed returns the root seed
func (s Source) Seed() uint64 {
	return s.seed
}

// Record returns the stream for the record at index. The same (seed, index)
// pair always yields the same stream, whatever order records are generated in.
func (s Source) Record(index int) *Stream {
	return newStream(s.seed, domainRecord, uint64(index))
}

// Named returns a stream for a dataset-level pass identified by name
func (s Source) Named(name string) *Stream {
	h := fnv.New64a()
	h.Write([]byte(name))
	return newStream(s.seed, domainNamed, h.Sum64())
}

// Stream is a ChaCha8-backed random stream that can also produce raw bytes
type Stream struct {
	*rand.Rand
	src *rand.ChaCha8
}

func newStream(seed, domain, key uint64) *Stream {
	var k [32]byte
	binary.LittleEndian.PutUint64(k[0:8], seed)
	binary.LittleEndian.PutUint64(k[8:16], domain)
	binary.LittleEndian.PutUint64(k[16:24], key)

	src := rand.NewChaCha8(k)
	return &Stream{Rand: rand.New(src), src: src}
}

// Read fills p with random bytes from the stream; it never fails
func (s *Stream) Read(p []byte) (int, error) {
	return s.src.Read(p)
}
