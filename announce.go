package glyphbridge

import (
	"context"
	"fmt"

	"glyphbridge/internal/batch"
	"glyphbridge/internal/net/proto"
)

const (
	defaultNickname = "glyphbridge"
	defaultColor    = "#00aaff"
)

// Announcer posts page-scoped chat messages under a fixed identity.
type Announcer struct {
	Nickname  string
	Color     string
	Transport batch.Transport
}

// Say sends one chat message.
func (a Announcer) Say(ctx context.Context, message string) error {
	if a.Transport == nil {
		return nil
	}
	nick := a.Nickname
	if nick == "" {
		nick = defaultNickname
	}
	color := a.Color
	if color == "" {
		color = defaultColor
	}
	return a.Transport.Send(ctx, proto.NewChat(nick, message, color))
}

// Sayf formats and sends one chat message.
func (a Announcer) Sayf(ctx context.Context, format string, args ...any) error {
	return a.Say(ctx, fmt.Sprintf(format, args...))
}
