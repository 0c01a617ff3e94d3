package content

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Snapshot is what a section renders: the list and whether a fetch is
// still outstanding.
type Snapshot[T any] struct {
	Items   []T  `json:"items"`
	Loading bool `json:"loading"`
}

// Loader owns one list fed by one query. It starts out loading with an
// empty list. Fetches may overlap; whichever completes last wins, and a
// failed fetch leaves the list as it was.
type Loader[T any] struct {
	mu       sync.RWMutex
	fetcher  Fetcher
	query    string
	logger   *log.Logger
	items    []T
	inflight int
	started  bool

	// OnLoading is called, outside the lock, each time the loading flag
	// changes.
	OnLoading func(bool)
}

func NewLoader[T any](f Fetcher, query string, logger *log.Logger) *Loader[T] {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader[T]{fetcher: f, query: query, logger: logger}
}

// Load runs the query once. Errors are logged and swallowed.
func (l *Loader[T]) Load(ctx context.Context) {
	l.mu.Lock()
	l.started = true
	l.inflight++
	becameLoading := l.inflight == 1
	l.mu.Unlock()
	if becameLoading {
		l.notify(true)
	}

	var items []T
	err := l.fetch(ctx, &items)

	l.mu.Lock()
	if err != nil {
		l.logger.Error("fetching content failed", "query", firstLine(l.query), "err", err)
	} else {
		if items == nil {
			items = []T{}
		}
		l.items = items
	}
	l.inflight--
	settled := l.inflight == 0
	l.mu.Unlock()
	if settled {
		l.notify(false)
	}
}

func (l *Loader[T]) fetch(ctx context.Context, dst *[]T) (err error) {
	if l.fetcher == nil {
		return ErrUnknownQuery
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("content fetcher panicked: %v", r)
		}
	}()
	return l.fetcher.Fetch(ctx, l.query, dst)
}

func (l *Loader[T]) notify(loading bool) {
	if l.OnLoading != nil {
		l.OnLoading(loading)
	}
}

// Snapshot copies the current state. A loader that has never run reports
// loading, matching the page's initial skeleton.
func (l *Loader[T]) Snapshot() Snapshot[T] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	items := make([]T, len(l.items))
	copy(items, l.items)
	return Snapshot[T]{Items: items, Loading: !l.started || l.inflight > 0}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' || r == '{' {
			return s[:i]
		}
	}
	return s
}
