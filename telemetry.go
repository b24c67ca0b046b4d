package glyphbridge

import (
	"sync/atomic"
	"time"
)

type telemetryCounters struct {
	editsSent          atomic.Uint64
	messagesSent       atomic.Uint64
	sendFailures       atomic.Uint64
	renderTicks        atomic.Uint64
	emptyTicks         atomic.Uint64
	tickDurationMicros atomic.Int64
	lastTickEdits      atomic.Uint64
	commands           atomic.Uint64
	ignoredCommands    atomic.Uint64
	reloads            atomic.Uint64
	reloadFailures     atomic.Uint64
	romBytes           atomic.Uint64
}

// TelemetrySnapshot is the counter section of Diagnostics.
type TelemetrySnapshot struct {
	EditsSent          uint64 `json:"editsSent"`
	MessagesSent       uint64 `json:"messagesSent"`
	SendFailures       uint64 `json:"sendFailures"`
	RenderTicks        uint64 `json:"renderTicks"`
	EmptyTicks         uint64 `json:"emptyTicks"`
	TickDurationMicros int64  `json:"tickDurationMicros"`
	LastTickEdits      uint64 `json:"lastTickEdits"`
	Commands           uint64 `json:"commands"`
	IgnoredCommands    uint64 `json:"ignoredCommands"`
	Reloads            uint64 `json:"reloads"`
	ReloadFailures     uint64 `json:"reloadFailures"`
	ROMBytes           uint64 `json:"romBytes"`
}

func (t *telemetryCounters) RecordTick(edits, messages int, failed bool, duration time.Duration) {
	t.renderTicks.Add(1)
	t.lastTickEdits.Store(uint64(max(edits, 0)))
	if edits == 0 {
		t.emptyTicks.Add(1)
	}
	if !failed {
		t.editsSent.Add(uint64(max(edits, 0)))
	}
	t.messagesSent.Add(uint64(max(messages, 0)))
	if failed {
		t.sendFailures.Add(1)
	}
	t.tickDurationMicros.Store(max(duration.Microseconds(), 0))
}

func (t *telemetryCounters) RecordCommand(accepted bool) {
	if accepted {
		t.commands.Add(1)
	} else {
		t.ignoredCommands.Add(1)
	}
}

func (t *telemetryCounters) RecordROM(bytes int) {
	t.romBytes.Store(uint64(max(bytes, 0)))
}

func (t *telemetryCounters) RecordReload(ok bool) {
	if ok {
		t.reloads.Add(1)
	} else {
		t.reloadFailures.Add(1)
	}
}

func (t *telemetryCounters) Snapshot() TelemetrySnapshot {
	return TelemetrySnapshot{
		EditsSent:          t.editsSent.Load(),
		MessagesSent:       t.messagesSent.Load(),
		SendFailures:       t.sendFailures.Load(),
		RenderTicks:        t.renderTicks.Load(),
		EmptyTicks:         t.emptyTicks.Load(),
		TickDurationMicros: t.tickDurationMicros.Load(),
		LastTickEdits:      t.lastTickEdits.Load(),
		Commands:           t.commands.Load(),
		IgnoredCommands:    t.ignoredCommands.Load(),
		Reloads:            t.reloads.Load(),
		ReloadFailures:     t.reloadFailures.Load(),
		ROMBytes:           t.romBytes.Load(),
	}
}
