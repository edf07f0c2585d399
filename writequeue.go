package folio

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// DefaultQueueSize is the default number of pending writes a WriteQueue holds.
const DefaultQueueSize = 256

// ErrQueueClosed is returned when saving to a closed WriteQueue.
var ErrQueueClosed = errors.New("write queue closed")

// saveTask is a portfolio to write for a user.
type saveTask struct {
	id        uuid.UUID
	user      string
	positions []Position
	creds     *oauth2.Token
}

// WriteQueue writes portfolios to the Repository in the background.
//
// It has a single worker: writes are applied one at a time, in the order
// they were enqueued, whatever the user. A failed write is logged and
// dropped, it is neither retried nor reported to the caller.
type WriteQueue struct {
	repo  *Repository
	tasks chan saveTask
	done  chan struct{}

	mu     sync.RWMutex // guards closed, and sending to tasks.
	closed bool

	opts options
}

// NewWriteQueue returns a WriteQueue and starts its worker. Call Close to stop it.
func NewWriteQueue(repo *Repository, opts ...Option) *WriteQueue {
	o := newOptions(0, opts)
	if o.queueSize < 1 {
		o.queueSize = 1
	}
	q := &WriteQueue{
		repo:  repo,
		tasks: make(chan saveTask, o.queueSize),
		done:  make(chan struct{}),
		opts:  o,
	}
	go q.run()
	return q
}

// EnqueueSave schedules the write of positions for user and returns
// immediately, unless the queue is full in which case it waits for room.
//
// The positions are copied: the caller may keep modifying its slice.
// Saving to a closed queue logs and drops the write.
func (q *WriteQueue) EnqueueSave(user string, positions []Position, creds *oauth2.Token) {
	task := saveTask{id: uuid.New(), user: user, positions: slices.Clone(positions), creds: creds}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.opts.log.Error().Err(ErrQueueClosed).Str("task", task.id.String()).Str("user", user).Msg("portfolio write dropped")
		return
	}
	q.tasks <- task
	q.opts.log.Debug().Str("task", task.id.String()).Str("user", user).Int("positions", len(positions)).Msg("portfolio write enqueued")
}

// run is the single worker loop.
func (q *WriteQueue) run() {
	defer close(q.done)
	for task := range q.tasks {
		q.save(task)
	}
}

func (q *WriteQueue) save(task saveTask) {
	// a submitted write cannot be cancelled.
	err := q.repo.Save(context.Background(), task.creds, task.positions)
	log := q.opts.log.With().Str("task", task.id.String()).Str("user", task.user).Logger()
	if err != nil {
		log.Error().Err(err).Msg("portfolio write failed, dropped")
		return
	}
	log.Debug().Int("positions", len(task.positions)).Msg("portfolio written")
}

// Close stops accepting writes and waits for the pending ones to complete.
//
// If ctx is done first, Close returns ctx.Err(): the writes still pending
// are logged and lost when the process exits. Close is idempotent.
func (q *WriteQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		q.opts.log.Error().Err(ctx.Err()).Int("pending", len(q.tasks)).Msg("write queue not drained, pending writes lost")
		return ctx.Err()
	}
}
