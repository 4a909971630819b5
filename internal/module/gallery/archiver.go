package gallery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// item is one design waiting to be uploaded.
type item struct {
	userID  uuid.UUID
	prompt  string
	image   []byte
	created time.Time
}

// Archiver uploads finished designs off the request path. Uploads are
// best-effort: a full buffer drops the design rather than blocking a
// generation response.
type Archiver struct {
	store  Store
	logger *zap.Logger
	buffer chan *item
	wg     sync.WaitGroup
	done   chan struct{}
}

// NewArchiver creates an archiver and starts its upload worker.
func NewArchiver(store Store, logger *zap.Logger, bufferSize int) *Archiver {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	a := &Archiver{
		store:  store,
		logger: logger,
		buffer: make(chan *item, bufferSize),
		done:   make(chan struct{}),
	}
	a.start()
	return a
}

// Archive queues one design for upload.
func (a *Archiver) Archive(userID uuid.UUID, prompt string, image []byte) {
	it := &item{
		userID:  userID,
		prompt:  prompt,
		image:   image,
		created: time.Now().UTC(),
	}
	select {
	case a.buffer <- it:
	default:
		a.logger.Warn("archive buffer full, dropping design",
			zap.String("user_id", userID.String()),
		)
	}
}

// Close stops the worker and flushes queued designs.
func (a *Archiver) Close() {
	close(a.done)
	a.wg.Wait()
}

func (a *Archiver) start() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case it := <-a.buffer:
				a.upload(it)
			case <-a.done:
				for {
					select {
					case it := <-a.buffer:
						a.upload(it)
					default:
						return
					}
				}
			}
		}
	}()
}

func (a *Archiver) upload(it *item) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	key := designKey(it.created, uuid.NewString())
	if err := a.store.Put(ctx, key, it.image); err != nil {
		a.logger.Error("failed to archive design",
			zap.Error(err),
			zap.String("user_id", it.userID.String()),
			zap.String("key", key),
		)
	}
}
