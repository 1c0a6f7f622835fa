// Package world holds the client-side mirror of server state: players,
// bullets, and static shapes, mutated only by inbound protocol messages,
// plus the ephemeral notification queue and the scoreboard projection.
package world

import (
	"fmt"
	"sort"

	"arena-client/internal/protocol"
)

// NotificationTTL is the initial time-to-live, in seconds, for join/leave/died
// notifications.
const NotificationTTL = 6.0

// Player is one entry in the local mirror. Fields are server-confirmed; the
// client never validates them (health clamping is server policy).
type Player struct {
	ID       int
	Username string
	X, Y     float64
	Angle    float64
	Health   int
	Score    int
}

// Bullet is one entry in the local mirror. Supercharged only affects rendering.
type Bullet struct {
	ID           int
	X, Y         float64
	Supercharged bool
}

// UnknownEntityError reports an update naming an id absent from the mirror.
// Recovered locally: the update is discarded, the next authoritative message
// for that id re-synchronizes.
type UnknownEntityError struct {
	Kind string
	ID   int
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("no %s with id %d in local mirror", e.Kind, e.ID)
}

// Store is the world state mirror. It is not safe for concurrent use; all
// mutation must come from the single session goroutine.
type Store struct {
	players map[int]*Player
	bullets map[int]*Bullet
	shapes  []protocol.ShapeIntro

	selfID  int
	hasSelf bool

	notes *NotificationQueue
}

// NewStore creates an empty mirror that pushes join/leave/died notifications
// onto notes.
func NewStore(notes *NotificationQueue) *Store {
	return &Store{
		players: make(map[int]*Player),
		bullets: make(map[int]*Bullet),
		notes:   notes,
	}
}

// Apply mutates the mirror for one inbound message. Exhaustive over the
// protocol; every rule is idempotent under replay of the same message.
// The returned error is always diagnostic, never fatal.
func (s *Store) Apply(msg protocol.ServerMessage) error {
	switch m := msg.(type) {
	case protocol.Welcome:
		// Local identity is set exactly once per session.
		if !s.hasSelf {
			s.selfID = m.ClientID
			s.hasSelf = true
		}

	case protocol.Goodbye:
		// Session lifecycle, handled by the caller. No store cleanup.

	case protocol.PlayerJoined:
		if _, ok := s.players[m.ID]; !ok {
			s.players[m.ID] = &Player{ID: m.ID, Username: m.Username}
		}
		s.notes.Push(m.Username+" joined", NotificationTTL)

	case protocol.PlayerLeft:
		s.removePlayer(m.ID, "left")

	case protocol.PlayerDied:
		s.removePlayer(m.ID, "died")

	case protocol.PlayerPosition:
		p, ok := s.players[m.ID]
		if !ok {
			return &UnknownEntityError{Kind: "player", ID: m.ID}
		}
		p.X, p.Y, p.Angle = m.X, m.Y, m.Angle

	case protocol.PlayerHealthChanged:
		p, ok := s.players[m.ID]
		if !ok {
			return &UnknownEntityError{Kind: "player", ID: m.ID}
		}
		p.Health = m.NewHealth

	case protocol.PlayerScoreChanged:
		p, ok := s.players[m.ID]
		if !ok {
			return &UnknownEntityError{Kind: "player", ID: m.ID}
		}
		p.Score = m.NewScore

	case protocol.BulletPosition:
		b, ok := s.bullets[m.ID]
		if !ok {
			b = &Bullet{ID: m.ID}
			s.bullets[m.ID] = b
		}
		b.X, b.Y, b.Supercharged = m.X, m.Y, m.IsSupercharged

	case protocol.BulletGone:
		delete(s.bullets, m.ID)

	case protocol.WorldSnapshot:
		for _, in := range m.Players {
			s.players[in.ID] = &Player{
				ID:       in.ID,
				Username: in.Username,
				X:        in.X,
				Y:        in.Y,
				Angle:    in.Angle,
				Health:   in.Health,
				Score:    in.Score,
			}
		}
		for _, shape := range m.Shapes {
			s.appendShape(shape)
		}

	case protocol.BadMessage:
		// Diagnostic only; the session surfaces it.

	default:
		return fmt.Errorf("unhandled server message %T", msg)
	}
	return nil
}

// removePlayer drops a player and announces it with the last-known username.
// An absent id is treated as already-removed.
func (s *Store) removePlayer(id int, verb string) {
	p, ok := s.players[id]
	if !ok {
		return
	}
	delete(s.players, id)
	s.notes.Push(p.Username+" "+verb, NotificationTTL)
}

// appendShape keeps the shape list append-only while staying idempotent when
// a snapshot is replayed.
func (s *Store) appendShape(shape protocol.ShapeIntro) {
	for _, existing := range s.shapes {
		if existing == shape {
			return
		}
	}
	s.shapes = append(s.shapes, shape)
}

// SelfID returns the server-assigned local identity, if welcomed yet.
func (s *Store) SelfID() (int, bool) {
	return s.selfID, s.hasSelf
}

// Self returns the controlled player, or nil if unknown.
func (s *Store) Self() *Player {
	if !s.hasSelf {
		return nil
	}
	return s.players[s.selfID]
}

// Player looks up a player by id.
func (s *Store) Player(id int) (*Player, bool) {
	p, ok := s.players[id]
	return p, ok
}

// PlayerCount returns the number of mirrored players.
func (s *Store) PlayerCount() int { return len(s.players) }

// BulletCount returns the number of mirrored bullets.
func (s *Store) BulletCount() int { return len(s.bullets) }

// Shapes returns the append-only static shape list.
func (s *Store) Shapes() []protocol.ShapeIntro { return s.shapes }

// Snapshot is an immutable per-frame view of the mirror, in deterministic
// order, safe to hand to the renderer.
type Snapshot struct {
	SelfID  int
	HasSelf bool
	Players []Player
	Bullets []Bullet
	Shapes  []protocol.ShapeIntro
}

// Snapshot copies the current mirror. Players and bullets are sorted by id so
// draw order is stable frame to frame.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		SelfID:  s.selfID,
		HasSelf: s.hasSelf,
		Players: make([]Player, 0, len(s.players)),
		Bullets: make([]Bullet, 0, len(s.bullets)),
		Shapes:  s.shapes,
	}
	for _, p := range s.players {
		snap.Players = append(snap.Players, *p)
	}
	for _, b := range s.bullets {
		snap.Bullets = append(snap.Bullets, *b)
	}
	sort.Slice(snap.Players, func(i, j int) bool { return snap.Players[i].ID < snap.Players[j].ID })
	sort.Slice(snap.Bullets, func(i, j int) bool { return snap.Bullets[i].ID < snap.Bullets[j].ID })
	return snap
}
