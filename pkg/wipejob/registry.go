// pkg/wipejob/registry.go

package wipejob

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	cerr "github.com/cockroachdb/errors"
)

// Registry owns the job table for one engine. It replaces ambient global
// state with an explicit object whose lifecycle is tied to the engine, and it
// persists a JSON snapshot of every job next to its audit log so status
// survives process restarts.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	dir  string
}

// NewRegistry creates a registry persisting snapshots under dir.
func NewRegistry(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, cerr.Wrapf(err, "create job directory %s", dir)
	}
	return &Registry{
		jobs: make(map[string]*Job),
		dir:  dir,
	}, nil
}

// Add registers a job and persists its initial snapshot.
func (r *Registry) Add(job *Job) error {
	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()
	return r.persist(job)
}

// Get returns a snapshot of the job. Snapshots are eventually consistent:
// the worker may have moved on by the time the caller reads it. Jobs from
// earlier process runs are loaded from their persisted snapshot.
func (r *Registry) Get(id string) (Job, error) {
	r.mu.RLock()
	job, ok := r.jobs[id]
	r.mu.RUnlock()
	if ok {
		return job.Snapshot(), nil
	}

	return r.loadFromDisk(id)
}

// Done returns the completion channel for a live job in this process.
func (r *Registry) Done(id string) (<-chan struct{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	return job.Done(), true
}

// persist writes the current snapshot to <dir>/<id>.json.
func (r *Registry) persist(job *Job) error {
	snapshot := job.Snapshot()
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return cerr.Wrapf(err, "marshal job %s", job.ID)
	}
	path := filepath.Join(r.dir, job.ID+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return cerr.Wrapf(err, "write job snapshot %s", path)
	}
	return nil
}

func (r *Registry) loadFromDisk(id string) (Job, error) {
	path := filepath.Join(r.dir, id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Job{}, cerr.Wrapf(ErrJobNotFound, "job %s", id)
		}
		return Job{}, cerr.Wrapf(err, "read job snapshot %s", path)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, cerr.Wrapf(err, "unmarshal job snapshot %s", path)
	}
	return job, nil
}
