package service

import (
	"context"
	"time"
)

// Broadcaster sends real-time events to connected clients.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastRoomEvent(roomID int, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastRoomEvent(int, string, any) {}

// GameResult is the record kept for a finished game.
type GameResult struct {
	Winner   string        `json:"winner"`
	Message  string        `json:"message"`
	Turns    int           `json:"turns"`
	Duration time.Duration `json:"duration"`
}

// Recorder archives finished games. Rooms themselves stay in-memory; the
// recorder only ever sees terminal results.
type Recorder interface {
	RecordResult(ctx context.Context, roomID int, result GameResult) error
}

// NoopRecorder discards results; used when no archive is configured.
type NoopRecorder struct{}

func (NoopRecorder) RecordResult(context.Context, int, GameResult) error { return nil }
