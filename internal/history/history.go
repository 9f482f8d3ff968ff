// Package history provides the client for the ordered message log that backs
// the relay. The log is an append-only list per channel key: records are
// appended in arrival order and read back as a contiguous range, never
// rewritten or reordered.
package history

import "context"

// FullRange is the stop index that selects the entire log in Range calls.
const FullRange = -1

// Store is the history log boundary. Append adds a record at the tail of the
// channel's log. Range reads records by position; start and stop follow Redis
// LRANGE semantics, so Range(ctx, key, 0, FullRange) returns the whole log in
// append order.
type Store interface {
	Append(ctx context.Context, key string, record []byte) error
	Range(ctx context.Context, key string, start, stop int64) ([][]byte, error)
}
