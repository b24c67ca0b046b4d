package network

import (
	"context"

	"glyphbridge/logging"
)

const (
	// EventConnected is emitted when the canvas websocket handshake completes.
	EventConnected logging.EventType = "network.connected"
	// EventDisconnected is emitted when the canvas connection drops.
	EventDisconnected logging.EventType = "network.disconnected"
	// EventReconnectScheduled is emitted before the fixed reconnect delay starts.
	EventReconnectScheduled logging.EventType = "network.reconnect_scheduled"
	// EventInboundDiscarded is emitted when an inbound payload cannot be decoded.
	EventInboundDiscarded logging.EventType = "network.inbound_discarded"
)

// ConnectionPayload describes a canvas connection.
type ConnectionPayload struct {
	URL     string `json:"url"`
	Attempt uint64 `json:"attempt"`
}

// DisconnectPayload records why a connection ended.
type DisconnectPayload struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// ReconnectPayload records the delay before the next dial.
type ReconnectPayload struct {
	DelayMillis int64  `json:"delayMillis"`
	Attempt     uint64 `json:"attempt"`
}

// DiscardPayload records a dropped inbound message.
type DiscardPayload struct {
	Bytes  int    `json:"bytes"`
	Reason string `json:"reason"`
}

func Connected(ctx context.Context, pub logging.Publisher, connID string, payload ConnectionPayload) {
	publish(ctx, pub, EventConnected, logging.SeverityInfo, connID, payload)
}

func Disconnected(ctx context.Context, pub logging.Publisher, connID string, payload DisconnectPayload) {
	publish(ctx, pub, EventDisconnected, logging.SeverityWarn, connID, payload)
}

func ReconnectScheduled(ctx context.Context, pub logging.Publisher, connID string, payload ReconnectPayload) {
	publish(ctx, pub, EventReconnectScheduled, logging.SeverityInfo, connID, payload)
}

// InboundDiscarded is debug level: malformed traffic is expected and never
// surfaces beyond the log.
func InboundDiscarded(ctx context.Context, pub logging.Publisher, connID string, payload DiscardPayload) {
	publish(ctx, pub, EventInboundDiscarded, logging.SeverityDebug, connID, payload)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, severity logging.Severity, connID string, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Actor:    logging.Connection(connID),
		Severity: severity,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		TraceID:  connID,
	})
}
