package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/arfandy/coup-server/pkg/coup"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrSeatNotJoined = errors.New("player not joined yet")
)

// Event types pushed to WebSocket subscribers. Events are poll triggers, not
// state: clients still read /state for the authoritative view.
const (
	EventRoomUpdated = "room_updated"
	EventGameOver    = "game_over"
)

// RoomManager owns the process-wide room table. Its lock guards only table
// lookup and insert; each room serializes its own requests.
type RoomManager struct {
	bcast Broadcaster
	rec   Recorder

	mu     sync.Mutex
	rooms  map[int]*Room
	nextID int
	seeds  *rand.Rand
}

// NewRoomManager creates an empty room table. Per-room deck rngs are seeded
// from the given source seed.
func NewRoomManager(bcast Broadcaster, rec Recorder, seed int64) *RoomManager {
	if bcast == nil {
		bcast = NoopBroadcaster{}
	}
	if rec == nil {
		rec = NoopRecorder{}
	}
	return &RoomManager{
		bcast: bcast,
		rec:   rec,
		rooms: make(map[int]*Room),
		seeds: rand.New(rand.NewSource(seed)),
	}
}

// Matchmake seats a player in the oldest room still waiting for players, or
// opens a new room. Returns (roomID, seatID).
func (m *RoomManager) Matchmake(name string) (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id := 0; id < m.nextID; id++ {
		r, ok := m.rooms[id]
		if !ok || !r.hasOpenSeat() {
			continue
		}
		if seat, ok := r.join(name); ok {
			m.afterJoin(r, seat, name)
			return id, seat
		}
	}

	now := time.Now()
	r := &Room{
		ID:         m.nextID,
		game:       coup.NewGame(rand.New(rand.NewSource(m.seeds.Int63()))),
		createdAt:  now,
		lastActive: now,
	}
	m.rooms[r.ID] = r
	m.nextID++
	seat, _ := r.join(name)
	m.afterJoin(r, seat, name)
	return r.ID, seat
}

func (m *RoomManager) afterJoin(r *Room, seat int, name string) {
	phase := r.Phase()
	log.Info().Int("roomId", r.ID).Int("playerId", seat).Str("name", name).
		Str("phase", string(phase)).Msg("Player matched into room")
	m.bcast.BroadcastRoomEvent(r.ID, EventRoomUpdated, map[string]any{"phase": phase})
}

// Get looks up a room by id.
func (m *RoomManager) Get(roomID int) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// View returns the per-seat projection of a room.
func (m *RoomManager) View(roomID, playerID int) (coup.View, error) {
	r, err := m.Get(roomID)
	if err != nil {
		return coup.View{}, err
	}
	v, ok := r.View(playerID)
	if !ok {
		return coup.View{}, ErrSeatNotJoined
	}
	return v, nil
}

// Apply routes one /action request to its room and publishes the resulting
// state change.
func (m *RoomManager) Apply(ctx context.Context, roomID, playerID int, in coup.Input) error {
	r, err := m.Get(roomID)
	if err != nil {
		return err
	}
	before := r.Phase()
	phase, message := r.Apply(playerID, in)
	log.Debug().Int("roomId", roomID).Int("playerId", playerID).
		Str("phase", string(phase)).Str("message", message).Msg("Action applied")
	m.publish(ctx, r, before, phase)
	return nil
}

// Quit eliminates a seat on request and publishes the resulting state change.
func (m *RoomManager) Quit(ctx context.Context, roomID, playerID int) error {
	r, err := m.Get(roomID)
	if err != nil {
		return err
	}
	before := r.Phase()
	phase, message := r.Quit(playerID)
	log.Info().Int("roomId", roomID).Int("playerId", playerID).
		Str("phase", string(phase)).Str("message", message).Msg("Player quit")
	m.publish(ctx, r, before, phase)
	return nil
}

func (m *RoomManager) publish(ctx context.Context, r *Room, before, after coup.Phase) {
	m.bcast.BroadcastRoomEvent(r.ID, EventRoomUpdated, map[string]any{"phase": after})
	if after != coup.PhaseGameOver || before == coup.PhaseGameOver {
		return
	}
	res := r.result()
	m.bcast.BroadcastRoomEvent(r.ID, EventGameOver, map[string]any{"winner": res.Winner})
	if err := m.rec.RecordResult(ctx, r.ID, res); err != nil {
		log.Error().Err(err).Int("roomId", r.ID).Msg("Failed to archive game result")
	}
}

// RoomCount returns the number of live rooms.
func (m *RoomManager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// Sweep evicts rooms idle longer than ttl, checking every interval, until
// the context is canceled. A ttl of zero disables eviction.
func (m *RoomManager) Sweep(ctx context.Context, interval, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.evictIdle(now, ttl)
		}
	}
}

func (m *RoomManager) evictIdle(now time.Time, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rooms {
		if r.idleFor(now) > ttl {
			delete(m.rooms, id)
			log.Info().Int("roomId", id).Msg("Evicted idle room")
		}
	}
}
