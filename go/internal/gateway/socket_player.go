package gateway

import (
	"context"
	"errors"

	"github.com/mcdev12/tiforama/go/internal/sound"
)

// ErrSendBufferFull is returned when a connection cannot take another message
var ErrSendBufferFull = errors.New("connection send buffer full")

// SocketPlayer forwards cues to the spectator's browser, which owns the audio device.
type SocketPlayer struct {
	conn *Connection
}

func NewSocketPlayer(conn *Connection) *SocketPlayer {
	return &SocketPlayer{conn: conn}
}

func (p *SocketPlayer) Play(ctx context.Context, cue sound.Cue, opts sound.Options) error {
	msg, err := encodeMessage(MessageTypeCue, CueData{Cue: cue, File: sound.File(cue), Options: opts})
	if err != nil {
		return err
	}
	if !p.conn.trySend(msg) {
		return ErrSendBufferFull
	}
	return nil
}

func (p *SocketPlayer) Stop(cue sound.Cue) {
	p.send(CueStopData{Cue: cue})
}

func (p *SocketPlayer) StopAll() {
	p.send(CueStopData{All: true})
}

func (p *SocketPlayer) send(data CueStopData) {
	msg, err := encodeMessage(MessageTypeCueStop, data)
	if err != nil {
		return
	}
	p.conn.trySend(msg)
}
