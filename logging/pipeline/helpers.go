package pipeline

import (
	"context"

	"glyphbridge/logging"
)

const (
	// EventTickRendered is emitted after every render tick.
	EventTickRendered logging.EventType = "pipeline.tick_rendered"
	// EventBatchDropped is emitted when one or more write messages fail to send.
	EventBatchDropped logging.EventType = "pipeline.batch_dropped"
	// EventROMLoaded is emitted when the emulator accepts a ROM.
	EventROMLoaded logging.EventType = "pipeline.rom_loaded"
	// EventReloadFailed is emitted when a live reload cannot load its ROM.
	EventReloadFailed logging.EventType = "pipeline.reload_failed"
	// EventCommand is emitted for each recognized command token.
	EventCommand logging.EventType = "pipeline.command"
)

// TickPayload summarizes one render tick.
type TickPayload struct {
	Field         int   `json:"field"`
	Edits         int   `json:"edits"`
	Messages      int   `json:"messages"`
	DroppedFrames int64 `json:"droppedFrames"`
}

// DropPayload summarizes a failed emission.
type DropPayload struct {
	Edits int    `json:"edits"`
	Error string `json:"error"`
}

// ROMPayload describes a loaded ROM.
type ROMPayload struct {
	Source string `json:"source"`
	Bytes  int    `json:"bytes"`
}

// ReloadFailurePayload records why a reload was rejected.
type ReloadFailurePayload struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// CommandPayload records a command token and the buttons it holds.
type CommandPayload struct {
	Token   string   `json:"token"`
	Buttons []string `json:"buttons,omitempty"`
}

// TickRendered is debug level; it fires twice a second.
func TickRendered(ctx context.Context, pub logging.Publisher, tick uint64, sessionID string, payload TickPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventTickRendered,
		Tick:     tick,
		Actor:    logging.Session(sessionID),
		Severity: logging.SeverityDebug,
		Payload:  payload,
	})
}

func BatchDropped(ctx context.Context, pub logging.Publisher, tick uint64, sessionID string, payload DropPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventBatchDropped,
		Tick:     tick,
		Actor:    logging.Session(sessionID),
		Severity: logging.SeverityWarn,
		Payload:  payload,
	})
}

func ROMLoaded(ctx context.Context, pub logging.Publisher, sessionID string, payload ROMPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventROMLoaded,
		Actor:    logging.Session(sessionID),
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

func ReloadFailed(ctx context.Context, pub logging.Publisher, sessionID string, payload ReloadFailurePayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventReloadFailed,
		Actor:    logging.Session(sessionID),
		Severity: logging.SeverityError,
		Payload:  payload,
	})
}

func Command(ctx context.Context, pub logging.Publisher, sender string, payload CommandPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventCommand,
		Actor:    logging.User(sender),
		Severity: logging.SeverityDebug,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryPipeline
	pub.Publish(ctx, event)
}
