// Package batch splits the edits of one render tick into size-bounded write
// messages.
package batch

import (
	"context"
	"errors"

	"glyphbridge/internal/net/proto"
	"glyphbridge/internal/telemetry"
)

// DefaultMaxEdits is the largest write the canvas accepts in one message.
const DefaultMaxEdits = 500

const (
	messagesMetricKey   = "batch_messages_total"
	editsMetricKey      = "batch_edits_total"
	sendErrorsMetricKey = "batch_send_errors_total"
)

// Transport delivers one outbound message.
type Transport interface {
	Send(ctx context.Context, v any) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, v any) error

// Send implements Transport.
func (f TransportFunc) Send(ctx context.Context, v any) error {
	if f == nil {
		return nil
	}
	return f(ctx, v)
}

// Chunk splits edits into consecutive slices of at most size edits each.
// The returned chunks share the input's backing array.
func Chunk(edits []proto.Edit, size int) [][]proto.Edit {
	if len(edits) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultMaxEdits
	}
	chunks := make([][]proto.Edit, 0, (len(edits)+size-1)/size)
	for start := 0; start < len(edits); start += size {
		end := start + size
		if end > len(edits) {
			end = len(edits)
		}
		chunks = append(chunks, edits[start:end:end])
	}
	return chunks
}

// Config tunes an Emitter.
type Config struct {
	MaxEdits  int
	Transport Transport
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
}

// Emitter sends chunked write messages. Sends are fire-and-forget: a failed
// chunk is reported but does not stop the remaining chunks.
type Emitter struct {
	size      int
	transport Transport
	logger    telemetry.Logger
	metrics   telemetry.Metrics
}

// NewEmitter constructs an emitter. A nil transport discards everything.
func NewEmitter(cfg Config) *Emitter {
	size := cfg.MaxEdits
	if size <= 0 {
		size = DefaultMaxEdits
	}
	return &Emitter{
		size:      size,
		transport: cfg.Transport,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// MaxEdits reports the chunk size.
func (e *Emitter) MaxEdits() int {
	if e == nil {
		return 0
	}
	return e.size
}

// Emit sends the edits of one render tick and returns the number of messages
// handed to the transport. The returned error joins every send failure.
func (e *Emitter) Emit(ctx context.Context, edits []proto.Edit) (int, error) {
	if e == nil || e.transport == nil {
		return 0, nil
	}
	var errs []error
	sent := 0
	for _, chunk := range Chunk(edits, e.size) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		sent++
		if err := e.transport.Send(ctx, proto.NewWrite(chunk)); err != nil {
			errs = append(errs, err)
			e.add(sendErrorsMetricKey, 1)
			if e.logger != nil {
				e.logger.Printf("[batch] dropped write of %d edits: %v", len(chunk), err)
			}
			continue
		}
		e.add(messagesMetricKey, 1)
		e.add(editsMetricKey, uint64(len(chunk)))
	}
	return sent, errors.Join(errs...)
}

func (e *Emitter) add(key string, delta uint64) {
	if e.metrics != nil {
		e.metrics.Add(key, delta)
	}
}
