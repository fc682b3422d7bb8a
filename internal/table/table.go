// Package table implements the per-table engine: seating, the hand
// lifecycle (deal, street betting, showdown, settlement), meta-action
// handling (join/leave/sit-out/admin), and periodic state broadcasts.
package table

import (
	"fmt"
	"sync"
	"time"

	"github.com/ajstarna/holdem/internal/cards"
	"github.com/ajstarna/holdem/internal/protocol"
	"github.com/decred/slog"
	"github.com/google/uuid"
)

// NonHumanHandsLimit is how many consecutive hands a table will play with
// no human-controlled seat before shutting itself down.
const NonHumanHandsLimit = 3

// DefaultActionTimeout is how long a human seat gets to submit an action
// before it is forced to sit out.
const DefaultActionTimeout = 45 * time.Second

// pollInterval is how often the action loop re-checks the actions map for a
// human seat's submission.
const pollInterval = time.Second

// HubNotifier is the Table's one-way back-channel to its owning Hub. Table
// never imports the hub package; this keeps the dependency one-directional.
type HubNotifier interface {
	GameOver(tableName string)
	Returned(tableName string, config *PlayerConfig, reason ReturnedReason)
}

// Table is one running game: fixed seating, blinds/buy-in, and the two
// mutex-guarded inbound queues the Hub feeds (§5). Every other field is
// owned exclusively by the goroutine running Run.
type Table struct {
	Name       string
	Seats      [9]*Player
	Configs    map[uuid.UUID]*PlayerConfig
	SmallBlind uint32
	BigBlind   uint32
	BuyIn      uint32
	MaxPlayers uint8
	Password   string
	Private    bool
	AdminID    uuid.UUID
	ButtonIdx  int
	HandNum    uint64

	ActionTimeout time.Duration
	HandLimit     uint64 // 0 means unlimited; set only by tests

	deck cards.Deck
	hub  HubNotifier
	log  slog.Logger

	actionsMu sync.Mutex
	actions   map[uuid.UUID]PlayerAction

	metaMu sync.Mutex
	meta   []MetaAction

	nonHumanHands int
}

// NewTable constructs an empty table ready to be seated and run.
func NewTable(name string, smallBlind, bigBlind, buyIn uint32, maxPlayers uint8, password string, deck cards.Deck, hub HubNotifier, log slog.Logger) *Table {
	return &Table{
		Name:          name,
		Configs:       make(map[uuid.UUID]*PlayerConfig),
		SmallBlind:    smallBlind,
		BigBlind:      bigBlind,
		BuyIn:         buyIn,
		MaxPlayers:    maxPlayers,
		Password:      password,
		Private:       password != "",
		ActionTimeout: DefaultActionTimeout,
		deck:          deck,
		hub:           hub,
		log:           log,
		actions:       make(map[uuid.UUID]PlayerAction),
	}
}

// PushAction records the most recent action a session submitted for id,
// overwriting any earlier unconsumed submission (§5: "only the most recent
// action per identity is retained").
func (t *Table) PushAction(id uuid.UUID, action PlayerAction) {
	t.actionsMu.Lock()
	defer t.actionsMu.Unlock()
	t.actions[id] = action
}

// PushMeta enqueues a structural event for the table's next drain point.
func (t *Table) PushMeta(m MetaAction) {
	t.metaMu.Lock()
	defer t.metaMu.Unlock()
	t.meta = append(t.meta, m)
}

func (t *Table) takeAction(id uuid.UUID) (PlayerAction, bool) {
	t.actionsMu.Lock()
	defer t.actionsMu.Unlock()
	a, ok := t.actions[id]
	if ok {
		delete(t.actions, id)
	}
	return a, ok
}

func (t *Table) clearActions() {
	t.actionsMu.Lock()
	defer t.actionsMu.Unlock()
	t.actions = make(map[uuid.UUID]PlayerAction)
}

func (t *Table) takeMeta() []MetaAction {
	t.metaMu.Lock()
	defer t.metaMu.Unlock()
	taken := t.meta
	t.meta = nil
	return taken
}

func (t *Table) requeueMeta(m MetaAction) {
	t.metaMu.Lock()
	defer t.metaMu.Unlock()
	t.meta = append(t.meta, m)
}

// Run is the table's top loop (§4.4): drain structural events between
// hands, evict configless seats, play one hand, advance the button, pace
// with a short sleep, and repeat until the hand limit or the no-humans
// cutoff is reached.
func (t *Table) Run() {
	defer func() {
		if r := recover(); r != nil {
			t.log.Criticalf("table %s: aborting after internal error: %v", t.Name, r)
		}
		t.hub.GameOver(t.Name)
	}()
	for {
		t.drainMeta(true, nil)
		t.evictStaleHeartbeats()
		t.evictConfiglessSeats()

		if t.HandLimit > 0 && t.HandNum >= t.HandLimit {
			t.log.Debugf("table %s: hand limit %d reached", t.Name, t.HandLimit)
			break
		}

		numHumans := 0
		for _, p := range t.Seats {
			if p != nil && p.HumanControlled {
				numHumans++
			}
		}
		if numHumans == 0 {
			t.nonHumanHands++
		} else {
			t.nonHumanHands = 0
		}
		if t.nonHumanHands > NonHumanHandsLimit {
			t.log.Debugf("table %s: no humans for %d hands, ending", t.Name, t.nonHumanHands)
			break
		}

		played := t.playOneHand()
		if played {
			t.HandNum++
			t.advanceButton()
		}
		time.Sleep(time.Second)
	}
}

// advanceButton moves the button to the next seat with chips that is not
// sitting out, scanning forward modulo 9 and giving up after a full lap.
func (t *Table) advanceButton() {
	for step := 1; step <= 9; step++ {
		i := (t.ButtonIdx + step) % 9
		p := t.Seats[i]
		if p == nil || p.IsSittingOut || p.Money == 0 {
			continue
		}
		t.ButtonIdx = i
		return
	}
	t.log.Warnf("table %s: could not find a valid next button position", t.Name)
}

// playOneHand plays a single hand end to end, returning whether a hand was
// actually dealt (fewer than two active seats suspends the table instead).
func (t *Table) playOneHand() bool {
	numActive := 0
	for _, p := range t.Seats {
		if p == nil {
			continue
		}
		p.IsActive = p.Money > 0
		if p.IsActive {
			numActive++
		}
	}

	if len(t.Configs) < 1 || numActive < 2 {
		t.broadcastSuspended()
		return false
	}

	hand := NewGameHand(t.BigBlind, &t.Seats)
	t.broadcastNewHand()
	t.clearActions()
	t.broadcastState(hand, nil)

	t.deck.Shuffle()
	t.dealHoleCards()

	for hand.Street != Showdown {
		hand.StartStreet(hand.Street, &t.Seats)
		handOver := t.playOneStreet(hand)
		time.Sleep(2 * time.Second)
		if handOver {
			break
		}
		t.transitionStreet(hand)
	}

	t.settle(hand)
	return true
}

func (t *Table) dealHoleCards() {
	for _, p := range t.Seats {
		if p == nil || !p.IsActive {
			continue
		}
		for i := 0; i < 2; i++ {
			c, ok := t.deck.Draw()
			if !ok {
				panic("table: deck exhausted dealing hole cards")
			}
			p.HoleCards = append(p.HoleCards, c)
		}
	}
}

// transitionStreet advances the hand to the next street, dealing that
// street's board card(s); the betting-state reset for the new street
// itself happens via StartStreet at the top of the next loop iteration.
func (t *Table) transitionStreet(hand *GameHand) {
	switch hand.Street {
	case Preflop:
		hand.Street = Flop
		hand.Flop = t.drawN(3)
	case Flop:
		hand.Street = Turn
		card := t.drawN(1)[0]
		hand.Turn = &card
	case Turn:
		hand.Street = River
		card := t.drawN(1)[0]
		hand.River = &card
	case River:
		hand.Street = Showdown
	}
	t.broadcastState(hand, nil)
}

func (t *Table) drawN(n int) []cards.Card {
	out := make([]cards.Card, 0, n)
	for i := 0; i < n; i++ {
		c, ok := t.deck.Draw()
		if !ok {
			panic("table: deck exhausted dealing the board")
		}
		out = append(out, c)
	}
	return out
}

// startingSeat is the first seat to act this street: one past the button.
func (t *Table) startingSeat() int {
	return (t.ButtonIdx + 1) % 9
}

// playOneStreet runs the betting loop for one street and reports whether
// the hand ended (everyone but one folded).
func (t *Table) playOneStreet(hand *GameHand) bool {
	numActive := 0
	for _, p := range t.Seats {
		if p != nil && p.IsActive {
			numActive++
		}
	}
	if numActive < 2 {
		return true
	}
	if hand.AllInSituation(&t.Seats) {
		t.log.Debugf("table %s: all-in situation, skipping betting on %s", t.Name, hand.Street)
		return false
	}

	i := t.startingSeat()
	for {
		t.drainMeta(false, hand)
		t.evictConfiglessSeats()

		switch hand.GetHandStatus(&t.Seats) {
		case HandOver:
			t.broadcastState(hand, nil)
			return true
		case NextStreet:
			t.broadcastState(hand, nil)
			return false
		}

		p := t.Seats[i]
		if p == nil || !p.IsActive || p.Money == 0 {
			i = (i + 1) % 9
			continue
		}

		idx := i
		hand.IndexToAct = &idx
		t.broadcastState(hand, nil)

		action := t.acquireAction(hand, p, i)
		hand.LastAction = &action
		p.LastAction = &action
		t.applyAction(hand, p, i, action)

		i = (i + 1) % 9
	}
}

// acquireAction resolves the next action for seat i: forced blind postings
// first, then a polled/synthesized normal action (§4.4.1).
func (t *Table) acquireAction(hand *GameHand, p *Player, seatIdx int) PlayerAction {
	if hand.LastAction == nil {
		amount := min32(t.SmallBlind, p.Money)
		return PlayerAction{Kind: PostSmallBlind, Amount: amount}
	}
	if hand.LastAction.Kind == PostSmallBlind {
		amount := min32(t.BigBlind, p.Money)
		return PlayerAction{Kind: PostBigBlind, Amount: amount}
	}

	deadline := time.Now().Add(t.ActionTimeout)
	for {
		if p.IsSittingOut {
			return PlayerAction{Kind: SitOutAction}
		}
		if _, stillSeated := t.Configs[p.ID]; !stillSeated {
			return PlayerAction{Kind: Fold}
		}

		var proposed PlayerAction
		var have bool
		if p.HumanControlled {
			proposed, have = t.takeAction(p.ID)
		} else {
			proposed, have = botAction(p), true
		}

		if !have {
			if time.Now().After(deadline) {
				break
			}
			time.Sleep(pollInterval)
			continue
		}

		validated, errMsg := t.validateAction(hand, p, seatIdx, proposed)
		if errMsg != "" {
			t.sendError(p.ID, protocol.ErrInvalidAction, errMsg)
			if p.HumanControlled {
				if time.Now().After(deadline) {
					break
				}
				time.Sleep(pollInterval)
			}
			continue
		}

		if p.HumanControlled {
			if cfg, ok := t.Configs[p.ID]; ok {
				cfg.Touch()
			}
		}
		return validated
	}

	t.PushMeta(MetaAction{Kind: MetaSitOut, PlayerID: p.ID})
	return PlayerAction{Kind: SitOutAction}
}

// validateAction applies the legality table in §4.4.1. It returns the
// (possibly adjusted) action and an empty errMsg on success, or a rejection
// reason to send back to the offender.
func (t *Table) validateAction(hand *GameHand, p *Player, seatIdx int, proposed PlayerAction) (PlayerAction, string) {
	cumulative := hand.ContributionFor(seatIdx)

	switch proposed.Kind {
	case Fold:
		if hand.CurrentBet <= cumulative {
			if p.HumanControlled {
				t.sendError(p.ID, protocol.ErrInvalidAction, "you said fold but we will let you check!")
			}
			return PlayerAction{Kind: Check}, ""
		}
		return proposed, ""

	case Check:
		if hand.CurrentBet > cumulative {
			return PlayerAction{}, "you can't check, there is a bet"
		}
		return proposed, ""

	case Call:
		if hand.CurrentBet <= cumulative {
			return PlayerAction{}, "there is nothing for you to call"
		}
		return proposed, ""

	case Bet:
		if hand.minRaiseLockedSeat != nil && *hand.minRaiseLockedSeat == seatIdx {
			return PlayerAction{}, "minimum raise on your previous bet was not satisfied"
		}
		newBet := proposed.Amount
		if newBet <= hand.CurrentBet {
			return PlayerAction{}, "a bet must raise the current bet"
		}
		if newBet > p.Money+cumulative {
			return PlayerAction{}, "you can't bet more than you have"
		}
		allIn := newBet == p.Money+cumulative
		if newBet < hand.CurrentBet+hand.MinRaise && !allIn {
			if p.LastAction != nil && p.LastAction.Kind == Bet {
				return PlayerAction{}, "minimum raise on your previous bet was not satisfied"
			}
			return PlayerAction{}, fmt.Sprintf("the new bet must be at least the minimum: %d", hand.CurrentBet+hand.MinRaise)
		}
		return proposed, ""

	case SitOutAction:
		p.IsSittingOut = true
		return proposed, ""

	default:
		return PlayerAction{}, "unrecognized action"
	}
}

// applyAction mutates the player's chips and the GameHand's betting state
// per §4.4.2, then forwards the contribution to the PotManager.
func (t *Table) applyAction(hand *GameHand, p *Player, seatIdx int, action PlayerAction) {
	cumulative := hand.ContributionFor(seatIdx)

	switch action.Kind {
	case PostSmallBlind:
		p.Money -= action.Amount
		hand.CurrentBet = t.SmallBlind
		hand.Contribute(seatIdx, p.ID, action.Amount, p.IsAllIn(), true)

	case PostBigBlind:
		p.Money -= action.Amount
		if action.Amount > hand.CurrentBet {
			hand.CurrentBet = action.Amount
		}
		hand.Contribute(seatIdx, p.ID, action.Amount, p.IsAllIn(), true)

	case Fold:
		p.IsActive = false

	case SitOutAction:
		p.IsActive = false

	case Check:
		// no money movement

	case Call:
		diff := hand.CurrentBet - cumulative
		if diff > p.Money {
			diff = p.Money
		}
		p.Money -= diff
		hand.Contribute(seatIdx, p.ID, diff, p.IsAllIn(), false)

	case Bet:
		raiseAmount := action.Amount - hand.CurrentBet
		if raiseAmount >= hand.MinRaise {
			hand.MinRaise = raiseAmount
			hand.lastFullRaiseSeat = &seatIdx
			hand.minRaiseLockedSeat = nil
		} else {
			// a short all-in sub-minimum raise: lock out the seat that
			// posted the raise being re-raised, until a full raise reopens
			// the betting.
			hand.minRaiseLockedSeat = hand.lastFullRaiseSeat
		}
		diff := action.Amount - cumulative
		hand.CurrentBet = action.Amount
		p.Money -= diff
		hand.Contribute(seatIdx, p.ID, diff, p.IsAllIn(), true)
	}
}

// settle computes and broadcasts the final payouts, waits for the UI's
// reveal pause, and clears hole cards for the next hand (§4.4).
func (t *Table) settle(hand *GameHand) {
	if len(t.Configs) == 0 {
		return
	}

	startingIdx := t.startingSeat()
	settlements := hand.DivvyPots(&t.Seats, t.Configs, startingIdx)

	numInShowdown := 0
	for _, p := range t.Seats {
		if p != nil && p.IsActive {
			numInShowdown++
		}
	}
	waitSeconds := 3*numInShowdown + 2

	t.broadcastState(hand, settlements)
	time.Sleep(time.Duration(waitSeconds) * time.Second)

	for _, p := range t.Seats {
		if p != nil {
			p.HoleCards = nil
		}
	}
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
