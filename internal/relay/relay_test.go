package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/driftline/relay/internal/history"
)

// fakeConn is an in-memory relay.Conn that records every frame handed to it.
type fakeConn struct {
	id       string
	username string
	open     bool
	failSend bool

	mu   sync.Mutex
	sent [][]byte
}

func newFakeConn(id, username string) *fakeConn {
	return &fakeConn{id: id, username: username, open: true}
}

func (f *fakeConn) ID() string       { return f.id }
func (f *fakeConn) Username() string { return f.username }
func (f *fakeConn) Open() bool       { return f.open }
func (f *fakeConn) Close() error     { f.open = false; return nil }

func (f *fakeConn) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSend {
		return errors.New("transport refused the write")
	}
	f.sent = append(f.sent, append([]byte(nil), payload...))
	return nil
}

func (f *fakeConn) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

// failingStore simulates a history store whose append path is down.
type failingStore struct {
	inner     *history.MemoryStore
	appendErr error
	rangeErr  error
}

func (s *failingStore) Append(ctx context.Context, key string, record []byte) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	return s.inner.Append(ctx, key, record)
}

func (s *failingStore) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	if s.rangeErr != nil {
		return nil, s.rangeErr
	}
	return s.inner.Range(ctx, key, start, stop)
}
