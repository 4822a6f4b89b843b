package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"
)

// TraceIDLength is the number of random bytes in a trace ID; the hex form
// is twice as long.
const TraceIDLength = 16

type traceKey struct{}

var (
	randRead = rand.Read
	traceSeq atomic.Uint64
)

// SetTraceID returns ctx carrying a newly generated trace ID.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, newTraceID())
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// GetTraceID returns "" when ctx has no trace ID.
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

func newTraceID() string {
	var b [TraceIDLength]byte
	if _, err := randRead(b[:]); err != nil {
		// clock plus sequence is still unique within the process
		slog.Warn("random source failed, deriving trace id from clock", "error", err)
		binary.BigEndian.PutUint64(b[:8], uint64(time.Now().UnixNano()))
		binary.BigEndian.PutUint64(b[8:], traceSeq.Add(1))
	}
	return hex.EncodeToString(b[:])
}
