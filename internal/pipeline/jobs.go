package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/dgallion1/uidoc/internal/uitree"
)

// JobStatus represents the state of a compile job.
type JobStatus string

const (
	StatusQueued        JobStatus = "queued"
	StatusLexing        JobStatus = "lexing"
	StatusParsing       JobStatus = "parsing"
	StatusResolving     JobStatus = "resolving"
	StatusMaterializing JobStatus = "materializing"
	StatusCompleted     JobStatus = "completed"
	StatusFailed        JobStatus = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job tracks the compilation of one uploaded file.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Filename string    `json:"filename"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData   []byte
	diagnostic *Diagnostic
	doc        *Document
	tree       *uitree.Node
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes jobs idle for longer than the TTL and returns how many
// were removed.
func (s *JobStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, job := range s.jobs {
		job.mu.Lock()
		idle := now.Sub(job.UpdatedAt)
		job.mu.Unlock()
		if idle > s.ttl {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// NewJob returns a queued job for the given upload.
func NewJob(filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        generateULID(),
		Filename:  filename,
		Status:    StatusQueued,
		Phase:     string(StatusQueued),
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail marks the job failed with a diagnostic.
func (j *Job) Fail(phase string, d Diagnostic) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusFailed
	j.Phase = phase
	j.diagnostic = &d
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// Complete stores the compiled result and releases the upload.
func (j *Job) Complete(doc *Document, tree *uitree.Node) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusCompleted
	j.Phase = "done"
	j.ContentHash = doc.Hash
	j.doc = doc
	j.tree = tree
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// Result returns the compiled document and tree of a completed job.
func (j *Job) Result() (*Document, *uitree.Node, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusCompleted {
		return nil, nil, false
	}
	return j.doc, j.tree, true
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string      `json:"job_id"`
	Filename    string      `json:"filename"`
	Status      JobStatus   `json:"status"`
	Phase       string      `json:"phase"`
	ContentHash string      `json:"content_hash,omitempty"`
	Title       string      `json:"title,omitempty"`
	Nodes       int         `json:"nodes,omitempty"`
	Texts       int         `json:"texts,omitempty"`
	Error       *Diagnostic `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:          j.ID,
		Filename:    j.Filename,
		Status:      j.Status,
		Phase:       j.Phase,
		ContentHash: j.ContentHash,
		Error:       j.diagnostic,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
	if j.doc != nil {
		snap.Title = j.doc.Title
		snap.Texts = len(j.doc.Texts)
	}
	if j.tree != nil {
		for _, n := range j.tree.Count() {
			snap.Nodes += n
		}
	}
	return snap
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
