package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ncobase/jobqueue/job/structs"
)

type memoryRepository struct {
	mu   sync.RWMutex
	jobs map[string]*structs.Job
}

// NewMemoryRepository returns a process-local job repository. Jobs do not
// survive a restart.
func NewMemoryRepository() JobRepository {
	return &memoryRepository{jobs: make(map[string]*structs.Job)}
}

func (r *memoryRepository) CreateSchema(context.Context) error {
	return nil
}

func (r *memoryRepository) Create(_ context.Context, job *structs.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("insert job %s: duplicate id", job.ID)
	}
	r.jobs[job.ID] = job.Clone()
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*structs.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

func (r *memoryRepository) Update(_ context.Context, job *structs.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; ok {
		r.jobs[job.ID] = job.Clone()
	}
	return nil
}

func (r *memoryRepository) UpdateIf(_ context.Context, job *structs.Job, from ...structs.JobStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.jobs[job.ID]
	if !ok || !hasStatus(current.Status, from) {
		return false, nil
	}
	r.jobs[job.ID] = job.Clone()
	return true, nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.jobs[id]
	delete(r.jobs, id)
	return ok, nil
}

func (r *memoryRepository) List(_ context.Context, params *structs.ListParams) ([]*structs.Job, int64, error) {
	jobs := r.filter(func(j *structs.Job) bool {
		return (params.Status == "" || j.Status == params.Status) &&
			(params.JobType == "" || j.JobType == params.JobType)
	})

	desc := params.SortOrder != "asc"
	less := sortLess(params.SortBy)
	sort.Slice(jobs, func(a, b int) bool {
		x, y := jobs[a], jobs[b]
		if desc {
			x, y = y, x
		}
		if c := less(x, y); c != 0 {
			return c < 0
		}
		return x.ID < y.ID
	})

	total := int64(len(jobs))
	start := params.Offset
	if start > len(jobs) {
		start = len(jobs)
	}
	end := len(jobs)
	if params.Limit > 0 && start+params.Limit < end {
		end = start + params.Limit
	}
	return jobs[start:end], total, nil
}

func (r *memoryRepository) GetPending(_ context.Context, limit int) ([]*structs.Job, error) {
	jobs := r.filter(func(j *structs.Job) bool { return j.IsQueued() })
	sort.Slice(jobs, func(a, b int) bool {
		x, y := jobs[a], jobs[b]
		if x.Priority.Rank() != y.Priority.Rank() {
			return x.Priority.Rank() > y.Priority.Rank()
		}
		if !x.CreatedAt.Equal(y.CreatedAt) {
			return x.CreatedAt.Before(y.CreatedAt)
		}
		return x.ID < y.ID
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (r *memoryRepository) GetByStatus(_ context.Context, status structs.JobStatus) ([]*structs.Job, error) {
	jobs := r.filter(func(j *structs.Job) bool { return j.Status == status })
	sort.Slice(jobs, func(a, b int) bool {
		if !jobs[a].CreatedAt.Equal(jobs[b].CreatedAt) {
			return jobs[a].CreatedAt.Before(jobs[b].CreatedAt)
		}
		return jobs[a].ID < jobs[b].ID
	})
	return jobs, nil
}

func (r *memoryRepository) CountByStatus(context.Context) (map[structs.JobStatus]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[structs.JobStatus]int64)
	for _, j := range r.jobs {
		counts[j.Status]++
	}
	return counts, nil
}

func (r *memoryRepository) CleanupOlderThan(_ context.Context, days int) (int64, error) {
	before, err := cutoff(days)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, j := range r.jobs {
		if j.IsTerminal() && j.CompletedAt != nil && j.CompletedAt.Before(before) {
			delete(r.jobs, id)
			n++
		}
	}
	return n, nil
}

// filter returns clones of the jobs matching keep
func (r *memoryRepository) filter(keep func(*structs.Job) bool) []*structs.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]*structs.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		if keep(j) {
			jobs = append(jobs, j.Clone())
		}
	}
	return jobs
}

func hasStatus(s structs.JobStatus, set []structs.JobStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

// sortLess returns a three-way comparison for a list sort key. Missing
// timestamps sort before present ones, as NULLs do in ascending SQL order.
func sortLess(field string) func(x, y *structs.Job) int {
	switch field {
	case "started_at":
		return func(x, y *structs.Job) int { return compareTimePtr(x.StartedAt, y.StartedAt) }
	case "completed_at":
		return func(x, y *structs.Job) int { return compareTimePtr(x.CompletedAt, y.CompletedAt) }
	case "priority":
		return func(x, y *structs.Job) int { return x.Priority.Rank() - y.Priority.Rank() }
	case "status":
		return func(x, y *structs.Job) int { return strings.Compare(string(x.Status), string(y.Status)) }
	case "job_type":
		return func(x, y *structs.Job) int { return strings.Compare(string(x.JobType), string(y.JobType)) }
	case "retry_count":
		return func(x, y *structs.Job) int { return x.RetryCount - y.RetryCount }
	default:
		return func(x, y *structs.Job) int { return x.CreatedAt.Compare(y.CreatedAt) }
	}
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
