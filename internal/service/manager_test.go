package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arfandy/coup-server/pkg/coup"
)

type capturedEvent struct {
	roomID    int
	eventType string
	data      any
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (b *mockBroadcaster) BroadcastRoomEvent(roomID int, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, capturedEvent{roomID, eventType, data})
}

func (b *mockBroadcaster) byType(eventType string) []capturedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []capturedEvent
	for _, e := range b.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type mockRecorder struct {
	mu      sync.Mutex
	results map[int]GameResult
	err     error
}

func (r *mockRecorder) RecordResult(_ context.Context, roomID int, result GameResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = make(map[int]GameResult)
	}
	r.results[roomID] = result
	return r.err
}

func newTestManager(t *testing.T) (*RoomManager, *mockBroadcaster, *mockRecorder) {
	t.Helper()
	b := &mockBroadcaster{}
	r := &mockRecorder{}
	return NewRoomManager(b, r, 1), b, r
}

func TestMatchmakeFillsRoomBeforeOpeningNext(t *testing.T) {
	m, _, _ := newTestManager(t)

	names := []string{"Leo", "Mikey", "Raph", "Donnie"}
	for i, name := range names {
		roomID, seatID := m.Matchmake(name)
		if roomID != 0 {
			t.Fatalf("player %d placed in room %d, want 0", i, roomID)
		}
		if seatID != i {
			t.Fatalf("player %d got seat %d, want %d", i, seatID, i)
		}
	}

	// The first room is full and playing; a fifth player opens a new room.
	roomID, seatID := m.Matchmake("Splinter")
	if roomID != 1 || seatID != 0 {
		t.Errorf("fifth player got room %d seat %d, want room 1 seat 0", roomID, seatID)
	}
	if m.RoomCount() != 2 {
		t.Errorf("RoomCount = %d, want 2", m.RoomCount())
	}
}

func TestMatchmakePrefersOldestWaitingRoom(t *testing.T) {
	m, _, _ := newTestManager(t)

	// Room 0 gets two players, then fills completely; room 1 opens with one.
	for i := 0; i < coup.NumSeats; i++ {
		m.Matchmake("a")
	}
	roomID, _ := m.Matchmake("b")
	if roomID != 1 {
		t.Fatalf("expected second room, got %d", roomID)
	}
	roomID, seatID := m.Matchmake("c")
	if roomID != 1 || seatID != 1 {
		t.Errorf("got room %d seat %d, want room 1 seat 1", roomID, seatID)
	}
}

func TestGetUnknownRoom(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, err := m.Get(42); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Get(42) err = %v, want ErrRoomNotFound", err)
	}
	if _, err := m.View(42, 0); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("View err = %v, want ErrRoomNotFound", err)
	}
	if err := m.Apply(context.Background(), 42, 0, coup.Input{}); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Apply err = %v, want ErrRoomNotFound", err)
	}
}

func TestViewBeforeJoining(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.Matchmake("Leo")

	if _, err := m.View(0, 3); !errors.Is(err, ErrSeatNotJoined) {
		t.Errorf("View for empty seat err = %v, want ErrSeatNotJoined", err)
	}
	v, err := m.View(0, 0)
	if err != nil {
		t.Fatalf("View for joined seat: %v", err)
	}
	if v.GameState != coup.PhaseWaitingForPlayers {
		t.Errorf("game_state = %s, want %s", v.GameState, coup.PhaseWaitingForPlayers)
	}
}

func TestApplyBroadcastsRoomUpdate(t *testing.T) {
	m, b, _ := newTestManager(t)
	for i := 0; i < coup.NumSeats; i++ {
		m.Matchmake("p")
	}

	before := len(b.byType(EventRoomUpdated))
	if err := m.Apply(context.Background(), 0, 0, coup.Input{Action: "Income"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := len(b.byType(EventRoomUpdated)); got != before+1 {
		t.Errorf("room_updated events = %d, want %d", got, before+1)
	}
	if got := len(b.byType(EventGameOver)); got != 0 {
		t.Errorf("game_over events = %d, want 0", got)
	}
}

func TestQuitToGameOverArchivesResult(t *testing.T) {
	m, b, rec := newTestManager(t)
	for _, name := range []string{"Leo", "Mikey", "Raph", "Donnie"} {
		m.Matchmake(name)
	}

	ctx := context.Background()
	for _, seat := range []int{1, 2, 3} {
		if err := m.Quit(ctx, 0, seat); err != nil {
			t.Fatalf("Quit(%d): %v", seat, err)
		}
	}

	v, err := m.View(0, 0)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.GameState != coup.PhaseGameOver {
		t.Fatalf("game_state = %s, want %s", v.GameState, coup.PhaseGameOver)
	}

	over := b.byType(EventGameOver)
	if len(over) != 1 {
		t.Fatalf("game_over events = %d, want exactly 1", len(over))
	}
	res, ok := rec.results[0]
	if !ok {
		t.Fatal("finished game was not archived")
	}
	if res.Winner != "Leo" {
		t.Errorf("archived winner = %q, want Leo", res.Winner)
	}
}

func TestGameOverPublishedOnce(t *testing.T) {
	m, b, _ := newTestManager(t)
	for i := 0; i < coup.NumSeats; i++ {
		m.Matchmake("p")
	}

	ctx := context.Background()
	for _, seat := range []int{1, 2, 3} {
		m.Quit(ctx, 0, seat)
	}
	// A stray request after the game ends must not re-announce it.
	m.Apply(ctx, 0, 0, coup.Input{Action: "Income"})
	if got := len(b.byType(EventGameOver)); got != 1 {
		t.Errorf("game_over events = %d, want 1", got)
	}
}

func TestEvictIdleRooms(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.Matchmake("Leo")
	if m.RoomCount() != 1 {
		t.Fatalf("RoomCount = %d, want 1", m.RoomCount())
	}

	m.evictIdle(time.Now().Add(time.Minute), 10*time.Minute)
	if m.RoomCount() != 1 {
		t.Error("active room must survive the sweep")
	}

	m.evictIdle(time.Now().Add(time.Hour), 10*time.Minute)
	if m.RoomCount() != 0 {
		t.Error("idle room must be evicted")
	}
}
