// Package worker runs a batch of jobs on a fixed number of goroutines.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Result is the outcome of one job.
type Result[J, R any] struct {
	Job      J
	Value    R
	Err      error
	WorkerID int
}

// Manager distributes jobs to workers.
type Manager[J, R any] struct {
	workerCount int
	process     func(ctx context.Context, job J) (R, error)
	logger      zerolog.Logger
	progressN   int
}

// NewManager creates a manager running process on workerCount goroutines.
func NewManager[J, R any](workerCount int, process func(ctx context.Context, job J) (R, error), logger zerolog.Logger) *Manager[J, R] {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Manager[J, R]{
		workerCount: workerCount,
		process:     process,
		logger:      logger,
		progressN:   100,
	}
}

// Process runs every job and returns results in job order. It fails only when every job failed.
// Jobs not started before ctx is done report ctx.Err().
func (m *Manager[J, R]) Process(ctx context.Context, jobs []J) ([]Result[J, R], error) {
	type indexed struct {
		i   int
		res Result[J, R]
	}

	jobChan := make(chan int, len(jobs))
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	resultsChan := make(chan indexed, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < m.workerCount; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobChan {
				res := Result[J, R]{Job: jobs[i], WorkerID: workerID}
				if err := ctx.Err(); err != nil {
					res.Err = err
				} else {
					res.Value, res.Err = m.process(ctx, jobs[i])
				}
				resultsChan <- indexed{i: i, res: res}
			}
		}(w)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	out := make([]Result[J, R], len(jobs))
	var successCount, errorCount int
	for r := range resultsChan {
		out[r.i] = r.res
		if r.res.Err == nil {
			successCount++
			if successCount%m.progressN == 0 {
				m.logger.Info().Int("succeeded", successCount).Int("failed", errorCount).Msg("progress")
			}
			continue
		}
		errorCount++
		m.logger.Warn().Err(r.res.Err).Int("worker", r.res.WorkerID).Interface("job", r.res.Job).Msg("job failed")
	}

	m.logger.Info().Int("succeeded", successCount).Int("failed", errorCount).Int("total", len(jobs)).Msg("completed")

	if errorCount > 0 && successCount == 0 {
		return out, fmt.Errorf("all %d jobs failed", errorCount)
	}
	return out, nil
}
