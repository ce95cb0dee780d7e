package worldinfo

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

// DefaultPollInterval is how often the book list is refreshed.
const DefaultPollInterval = 30 * time.Second

// Poller refreshes the list of world-info books on an interval until its
// context is cancelled.
type Poller struct {
	api      API
	interval time.Duration
	log      *slog.Logger
	onChange func([]Book)

	mu    sync.RWMutex
	books []Book
	done  chan struct{}
}

// NewPoller creates a poller. onChange, if set, runs after a refresh that
// changed the list.
func NewPoller(api API, interval time.Duration, log *slog.Logger, onChange func([]Book)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Poller{api: api, interval: interval, log: log, onChange: onChange}
}

// Start refreshes once and then on every tick. It returns immediately; the
// loop exits when ctx is done.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.done != nil {
		p.mu.Unlock()
		return
	}
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.refreshLogged(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.refreshLogged(ctx)
			}
		}
	}()
}

// Done is closed once the loop started by Start has exited. It is nil
// before Start.
func (p *Poller) Done() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.done
}

// Books returns the last fetched list.
func (p *Poller) Books() []Book {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.books)
}

// Refresh fetches the book list now.
func (p *Poller) Refresh(ctx context.Context) error {
	if p.api == nil {
		return ErrAPIMissing
	}
	books, err := p.api.ListBooks(ctx)
	if err != nil {
		return err
	}
	books = lo.UniqBy(books, func(b Book) string { return b.Name })

	p.mu.Lock()
	changed := !slices.Equal(p.books, books)
	p.books = books
	p.mu.Unlock()

	if changed && p.onChange != nil {
		p.onChange(slices.Clone(books))
	}
	return nil
}

func (p *Poller) refreshLogged(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
		p.log.Debug("world book refresh failed", "error", err)
	}
}
