package table

import (
	"time"

	"github.com/ajstarna/holdem/internal/cards"
	"github.com/ajstarna/holdem/internal/protocol"
	"github.com/google/uuid"
)

// ReplyFunc is the per-session outbound callback a PlayerConfig carries —
// the "reply address" in the distilled spec's vocabulary.
type ReplyFunc = protocol.ReplyFunc

// PlayerTimeout is how long a connected-but-silent identity is tolerated
// before the Hub (lobby) or Table (seated) evicts it.
const PlayerTimeout = 30 * time.Minute

// PlayerConfig is the identity-local half of a seated or lobby client:
// display name, where to send outbound frames, and a liveness timestamp.
// It is removed on explicit Leave or heart-beat failure; the seat's Player
// struct survives until the next inspection point (a "configless seat").
type PlayerConfig struct {
	ID        uuid.UUID
	Name      string
	Reply     ReplyFunc
	HeartBeat time.Time
}

// NewPlayerConfig creates a config for a freshly connected identity.
func NewPlayerConfig(id uuid.UUID, reply ReplyFunc) *PlayerConfig {
	return &PlayerConfig{ID: id, Reply: reply, HeartBeat: time.Now()}
}

// Touch refreshes the heart-beat on any meaningful client activity.
func (c *PlayerConfig) Touch() {
	c.HeartBeat = time.Now()
}

// HasActiveHeartBeat reports whether c has been heard from within timeout.
func (c *PlayerConfig) HasActiveHeartBeat(timeout time.Duration) bool {
	return time.Since(c.HeartBeat) <= timeout
}

// send delivers frame to this config's reply address, if any is set (a
// config momentarily lacking a reply address — mid-reconnect — drops the
// frame rather than blocking the Table).
func (c *PlayerConfig) send(frame any) {
	if c == nil || c.Reply == nil {
		return
	}
	c.Reply(frame)
}

// Send is the exported form of send, for callers outside the package (the
// Hub unicasting to a lobby-side config).
func (c *PlayerConfig) Send(frame any) {
	c.send(frame)
}

// Player is the seat-local state for one occupant of a Table. It survives
// across hands: the seat is emptied by an admin bot removal or, between
// hands, once its config is gone (after Leave or a heart-beat failure); a
// busted player keeps the seat. IsActive is set from Money at the start of
// each hand, LastAction is cleared as each street starts, and HoleCards are
// cleared once the hand settles.
type Player struct {
	ID             uuid.UUID
	Seat           int
	HumanControlled bool
	Money          uint32

	IsActive     bool
	IsSittingOut bool

	HoleCards []cards.Card

	LastAction *PlayerAction
}

// NewPlayer seats a fresh player with the given starting stack.
func NewPlayer(id uuid.UUID, seat int, human bool, money uint32) *Player {
	return &Player{
		ID:              id,
		Seat:            seat,
		HumanControlled: human,
		Money:           money,
		IsActive:        true,
	}
}

// IsAllIn reports the invariant is_all_in <=> is_active && money == 0.
func (p *Player) IsAllIn() bool {
	return p.IsActive && p.Money == 0
}

// ResetForNewHand clears per-hand scratch state, leaving Money/seat/identity
// intact.
func (p *Player) ResetForNewHand() {
	p.HoleCards = nil
	p.LastAction = nil
}

// ResetForNewStreet clears the fields the spec says are cleared on every
// street transition.
func (p *Player) ResetForNewStreet() {
	p.LastAction = nil
}
