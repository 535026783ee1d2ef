package prefetch

import (
	"context"
	"sync"
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/osm"
)

type JobStatus int

const (
	JobStatusQueued     JobStatus = 1
	JobStatusInProgress JobStatus = 2
	JobStatusDone       JobStatus = 3
	JobStatusFailed     JobStatus = 4
)

var jobStatusNames = []string{
	"",
	"Queued",
	"In Progress",
	"Done",
	"Failed",
}

func (s JobStatus) String() string {
	return jobStatusNames[s]
}

type Job struct {
	Bounds         osm.Bounds    `json:"bounds"`
	MinZoom        int           `json:"minZoom"`
	MaxZoom        int           `json:"maxZoom"`
	Status         JobStatus     `json:"status"`
	TimeInProgress time.Duration `json:"timeInProgress"`
	Result         *Result       `json:"result,omitempty"`
	ErrorMessage   string        `json:"errorMessage,omitempty"`
}

// Queue runs prefetch jobs one at a time, in the background.
type Queue struct {
	prefetcher *Prefetcher

	mu   sync.RWMutex
	jobs []*Job
}

func NewQueue(prefetcher *Prefetcher) *Queue {
	return &Queue{prefetcher: prefetcher}
}

func (q *Queue) GetJobs() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.jobs
}

func (q *Queue) AddJob(bounds osm.Bounds, minZoom, maxZoom int) errorsx.Error {
	if minZoom < 0 || maxZoom < minZoom {
		return errorsx.Errorf("bad zoom range: %d..%d", minZoom, maxZoom)
	}

	job := &Job{
		Bounds:  bounds,
		MinZoom: minZoom,
		MaxZoom: maxZoom,
		Status:  JobStatusQueued,
	}

	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	nextJob := q.getNextJobToProcess()
	if nextJob != nil {
		go q.runJob(nextJob)
	}

	return nil
}

func (q *Queue) getNextJobToProcess() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.Status == JobStatusInProgress {
			// a job is already running. Wait.
			return nil
		}
	}

	for _, job := range q.jobs {
		if job.Status == JobStatusQueued {
			return job
		}
	}

	return nil
}

func (q *Queue) runJob(job *Job) {
	q.mu.Lock()
	job.Status = JobStatusInProgress
	q.mu.Unlock()

	startTime := time.Now()

	result, err := q.prefetcher.PrefetchBounds(context.Background(), job.Bounds, job.MinZoom, job.MaxZoom, nil)

	q.mu.Lock()
	job.TimeInProgress = time.Since(startTime)
	if err != nil {
		job.Status = JobStatusFailed
		job.ErrorMessage = err.Error()
	} else {
		job.Status = JobStatusDone
		job.Result = result
	}
	q.mu.Unlock()

	nextJob := q.getNextJobToProcess()
	if nextJob != nil {
		go q.runJob(nextJob)
	}
}
