package assembler

import (
	"fmt"
	"time"
)

// ChunkJob asks a worker to generate the records for indices [Start, End)
type ChunkJob struct {
	ID    int // Chunk sequence number
	Start int // First index, inclusive
	End   int // Last index, exclusive
}

// Size returns the number of records in the chunk
func (j ChunkJob) Size() int {
	return j.End - j.Start
}

// String returns the index range of the chunk
func (j ChunkJob) String() string {
	return fmt.Sprintf("chunk %d [%d, %d)", j.ID, j.Start, j.End)
}

// ChunkResult reports a finished chunk
type ChunkResult struct {
	JobID     int
	WorkerID  int
	Rows      int
	Failures  int
	StartTime time.Time
	Duration  time.Duration
}

// splitChunks partitions [0, rowCount) into consecutive jobs of at most chunkSize
func splitChunks(rowCount, chunkSize int) []ChunkJob {
	if rowCount <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	jobs := make([]ChunkJob, 0, (rowCount+chunkSize-1)/chunkSize)
	for start, id := 0, 0; start < rowCount; start, id = start+chunkSize, id+1 {
		end := start + chunkSize
		if end > rowCount {
			end = rowCount
		}
		jobs = append(jobs, ChunkJob{ID: id, Start: start, End: end})
	}
	return jobs
}
