// Package coordinator implements the Index Coordinator (C8): one indexing
// job per file-id, with a small state machine (idle -> indexing ->
// complete/cancelled/error), throttled progress emission, and cleanup of
// partial artifacts on cancel or error. Grounded on the teacher's
// app.go pattern of a context.CancelFunc held per in-flight operation
// (app.go's query cancellation map), generalized from one global slot to
// one slot per file-id.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"dataexplorer/internal/catalogdb"
	"dataexplorer/internal/engineerr"
	"dataexplorer/internal/indexwriter"
	"dataexplorer/internal/logging"
	"dataexplorer/internal/parser"
)

// State names one point in the job lifecycle described in §4.6.
type State string

const (
	Idle      State = "idle"
	Indexing  State = "indexing"
	Complete  State = "complete"
	Cancelled State = "cancelled"
	Error     State = "error"
)

// Status is a snapshot of one file-id's job, delivered on every progress
// tick and as the terminal event.
type Status struct {
	FileID        string
	State         State
	Percent       float64
	Records       int64
	ETA           float64
	Message       string   // populated on State == Error
	WarningsCount int      // populated on State == Complete
	Warnings      []string // populated on State == Complete, capped at 20
}

// StatusFunc receives every progress and terminal Status for a job.
type StatusFunc func(Status)

type jobState struct {
	handle uuid.UUID // internal worker handle; never exposed outside logging
	cancel context.CancelFunc
	state  State
}

// Coordinator owns at most one active job per file-id, per §4.6: "Only one
// active job per file-id at a time; a second start while indexing is
// rejected."
type Coordinator struct {
	db       *catalogdb.DB
	indexDir string
	log      logging.Logger

	mutex sync.Mutex
	jobs  map[string]*jobState
}

// New creates a Coordinator writing position tables under indexDir and
// catalog/search/stats rows into db.
func New(db *catalogdb.DB, indexDir string, log logging.Logger) *Coordinator {
	return &Coordinator{
		db:       db,
		indexDir: indexDir,
		log:      logging.Of(log),
		jobs:     make(map[string]*jobState),
	}
}

// State reports the current state of fileID's job, Idle if none is known.
func (c *Coordinator) State(fileID string) State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if j, ok := c.jobs[fileID]; ok {
		return j.state
	}
	return Idle
}

// Start begins an indexing job for the given Job, spawning its own
// goroutine (the "parser thread" of §5's concurrency model) and reporting
// progress/terminal events through onStatus. Returns an error immediately,
// without spawning, if a job for job.FileID is already indexing.
func (c *Coordinator) Start(job indexwriter.Job, onStatus StatusFunc) error {
	c.mutex.Lock()
	if existing, ok := c.jobs[job.FileID]; ok && existing.state == Indexing {
		c.mutex.Unlock()
		return engineerr.Validationf("index already in progress for %s", job.FileID)
	}
	ctx, cancel := context.WithCancel(context.Background())
	handle := uuid.New()
	c.jobs[job.FileID] = &jobState{handle: handle, cancel: cancel, state: Indexing}
	c.mutex.Unlock()

	c.log.Log("info", fmt.Sprintf("index %s: started worker %s", job.FileID, handle))
	go c.run(ctx, job, onStatus)
	return nil
}

// Cancel requests cancellation of fileID's active job, per cancel_index
// (§6). A no-op, not an error, if no job is indexing for fileID.
func (c *Coordinator) Cancel(fileID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if j, ok := c.jobs[fileID]; ok && j.state == Indexing {
		j.cancel()
	}
}

func (c *Coordinator) run(ctx context.Context, job indexwriter.Job, onStatus StatusFunc) {
	progress := func(p parser.Progress) {
		c.setState(job.FileID, Indexing)
		emit(onStatus, Status{FileID: job.FileID, State: Indexing, Percent: p.Percent, Records: p.RecordsSoFar, ETA: p.ETASeconds})
	}

	summary, err := indexwriter.Write(ctx, c.db, c.indexDir, job, progress, c.log)
	switch {
	case err == nil:
		c.setState(job.FileID, Complete)
		emit(onStatus, Status{FileID: job.FileID, State: Complete, Percent: 100, WarningsCount: summary.WarningsCount, Warnings: summary.Warnings})
	case isCancelled(err):
		c.setState(job.FileID, Cancelled)
		emit(onStatus, Status{FileID: job.FileID, State: Cancelled})
	default:
		c.setState(job.FileID, Error)
		emit(onStatus, Status{FileID: job.FileID, State: Error, Message: err.Error()})
		c.log.Log("error", fmt.Sprintf("index %s: %v", job.FileID, err))
	}
}

func isCancelled(err error) bool {
	_, ok := err.(engineerr.Cancelled)
	return ok
}

func (c *Coordinator) setState(fileID string, s State) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if j, ok := c.jobs[fileID]; ok {
		j.state = s
	}
}

func emit(fn StatusFunc, s Status) {
	if fn != nil {
		fn(s)
	}
}
