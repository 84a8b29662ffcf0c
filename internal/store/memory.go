package store

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/i474232898/oura-data-handler/internal/ring"
)

// snapshot is one stored CSV document.
type snapshot struct {
	data    []byte
	savedAt time.Time
}

// MemoryStore keeps CSV documents in memory. It serves as both ring.Loader and
// ring.Saver, so the sync job can feed the HTTP surface without touching disk.
type MemoryStore struct {
	mu sync.RWMutex

	// key: output name, see ExportName
	data map[string]snapshot

	// maxAge, when positive, hides documents older than this on Open.
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryStore creates an empty store. maxAge <= 0 keeps documents forever.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]snapshot),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Put stores a document under an output name.
func (s *MemoryStore) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = snapshot{data: append([]byte(nil), data...), savedAt: s.now()}
}

// Open implements ring.Loader.
func (s *MemoryStore) Open(dt ring.DataType) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[ExportName(string(dt))]
	if !ok {
		return nil, fmt.Errorf("%w: no stored data for %s", ring.ErrFileNotFound, dt)
	}
	if s.maxAge > 0 && s.now().Sub(snap.savedAt) > s.maxAge {
		return nil, fmt.Errorf("%w: stored data for %s is older than %s", ring.ErrFileNotFound, dt, s.maxAge)
	}
	return io.NopCloser(bytes.NewReader(snap.data)), nil
}

// Create implements ring.Saver. The document becomes visible on Close and
// replaces any earlier one under the same name.
func (s *MemoryStore) Create(name string) (io.WriteCloser, error) {
	return &memoryWriter{store: s, name: name}, nil
}

type memoryWriter struct {
	store *MemoryStore
	name  string
	buf   bytes.Buffer
}

func (w *memoryWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memoryWriter) Close() error {
	w.store.Put(w.name, w.buf.Bytes())
	return nil
}
