// Package theme holds the visitor's light/dark preference.
package theme

import "sync"

// Theme is the page color scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// StorageKey is the only key the store ever reads or writes.
const StorageKey = "theme"

// Parse accepts exactly "light" or "dark".
func Parse(s string) (Theme, bool) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), true
	}
	return "", false
}

// Opposite returns the theme a toggle moves to.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

func (t Theme) String() string { return string(t) }

// KV is the browser-scoped key/value persistence the store writes through.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Store reads and toggles the persisted preference. It is synchronous and
// non-reactive: callers re-render after Toggle themselves.
type Store struct {
	kv KV

	// Feedback is played on every toggle. Its error is ignored, browsers
	// routinely refuse autoplay.
	Feedback func() error
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Get returns the stored theme, or Light when nothing valid is stored or
// the storage cannot be read.
func (s *Store) Get() Theme {
	if s.kv == nil {
		return Light
	}
	raw, err := s.kv.Get(StorageKey)
	if err != nil {
		return Light
	}
	t, ok := Parse(raw)
	if !ok {
		return Light
	}
	return t
}

// Toggle flips the theme, persists it and returns the new value.
func (s *Store) Toggle() Theme {
	next := s.Get().Opposite()
	if s.kv != nil {
		_ = s.kv.Set(StorageKey, next.String())
	}
	if s.Feedback != nil {
		_ = s.Feedback()
	}
	return next
}

// MemoryKV is a KV kept in process memory.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
