package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/aretw0/breadboard/pkg/circuit"
	"github.com/aretw0/breadboard/pkg/codec"
	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/google/uuid"
)

// JobStatus is the progress of a truth table job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is an asynchronous truth table enumeration over a snapshot of a
// session. Table is shared between the jobs of identical circuits and must
// not be modified.
type Job struct {
	ID       string             `json:"id"`
	Session  string             `json:"session"`
	Revision uint64             `json:"revision"`
	Status   JobStatus          `json:"status"`
	Table    *domain.TruthTable `json:"table,omitempty"`
	Error    string             `json:"error,omitempty"`
	Created  time.Time          `json:"created"`
	Finished time.Time          `json:"finished,omitzero"`

	err  error
	key  string
	done chan struct{}
}

// Err returns the failure of a finished job.
func (j *Job) Err() error { return j.err }

func (j *Job) copy() *Job {
	cp := *j
	cp.done = nil
	return &cp
}

// RequestTruthTable starts enumerating the session's circuit as it is now.
// Requests for an unchanged circuit return the job already running or
// finished for it; failed jobs are retried. Starting a job forgets the
// session's finished jobs for other versions of the circuit. The live
// circuit is never touched by the enumeration.
func (m *Manager) RequestTruthTable(ctx context.Context, id string) (*Job, error) {
	var (
		snap  []byte
		rev   uint64
		clone *circuit.Graph
	)
	err := m.view(ctx, id, func(s *live) error {
		data, err := codec.Encode(s.graph)
		if err != nil {
			return err
		}
		snap = data
		rev = s.graph.Revision()
		clone = s.graph.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(snap)
	content := hex.EncodeToString(sum[:])
	jobKey := fmt.Sprintf("%s:%d:%s", id, rev, content)

	m.jmu.Lock()
	if jobID, ok := m.byKey[jobKey]; ok {
		if j := m.jobs[jobID]; j != nil && j.Status != JobFailed {
			cp := j.copy()
			m.jmu.Unlock()
			return cp, nil
		}
	}
	m.pruneJobs(id, jobKey)
	job := &Job{
		ID:       uuid.NewString(),
		Session:  id,
		Revision: rev,
		Status:   JobPending,
		Created:  time.Now(),
		key:      jobKey,
		done:     make(chan struct{}),
	}
	m.jobs[job.ID] = job
	m.byKey[jobKey] = job.ID
	cp := job.copy()
	m.jmu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		// Identical circuits in different sessions share one enumeration.
		v, err, shared := m.flight.Do(content, func() (any, error) {
			return m.engine.Enumerate(m.ctx, clone)
		})
		table, _ := v.(*domain.TruthTable)
		m.finish(job, table, err)
		m.logger.Debug("truth table job finished",
			"session_id", id,
			"job_id", job.ID,
			"shared", shared,
			"err", err,
		)
	}()
	return cp, nil
}

func (m *Manager) finish(job *Job, table *domain.TruthTable, err error) {
	m.jmu.Lock()
	defer m.jmu.Unlock()
	job.Finished = time.Now()
	if err != nil {
		job.Status = JobFailed
		job.err = err
		job.Error = err.Error()
	} else {
		job.Status = JobDone
		job.Table = table
	}
	close(job.done)
}

// TruthTable returns the current state of a job.
func (m *Manager) TruthTable(ctx context.Context, jobID string) (*Job, error) {
	m.jmu.RLock()
	defer m.jmu.RUnlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
	}
	return j.copy(), nil
}

// Wait blocks until the job finishes or ctx is done.
func (m *Manager) Wait(ctx context.Context, jobID string) (*Job, error) {
	m.jmu.RLock()
	j, ok := m.jobs[jobID]
	m.jmu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
	}
	select {
	case <-j.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return m.TruthTable(ctx, jobID)
}

// pruneJobs forgets the finished jobs of a session except the one stored
// under keep. Callers hold jmu.
func (m *Manager) pruneJobs(id, keep string) {
	for jobID, j := range m.jobs {
		if j.Session != id || j.Status == JobPending {
			continue
		}
		if j.key == keep && j.Status != JobFailed {
			continue
		}
		delete(m.jobs, jobID)
		if m.byKey[j.key] == jobID {
			delete(m.byKey, j.key)
		}
	}
}

// dropJobs forgets the jobs of a deleted session. Running enumerations
// finish on their own.
func (m *Manager) dropJobs(id string) {
	m.jmu.Lock()
	defer m.jmu.Unlock()
	for jobID, j := range m.jobs {
		if j.Session == id {
			delete(m.jobs, jobID)
			delete(m.byKey, j.key)
		}
	}
}
