package table

import (
	"github.com/ajstarna/holdem/internal/cards"
	"github.com/ajstarna/holdem/internal/handeval"
	"github.com/ajstarna/holdem/internal/potmgr"
	"github.com/ajstarna/holdem/internal/protocol"
	"github.com/google/uuid"
)

// Street is one of the betting rounds, plus the terminal Showdown.
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
	numStreets = int(Showdown) + 1
)

func (s Street) String() string {
	switch s {
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	default:
		return "unknown"
	}
}

// HandStatus is the outcome of re-classifying a street's action state
// (§4.3).
type HandStatus int

const (
	KeepPlaying HandStatus = iota
	NextStreet
	HandOver
)

// GameHand is the per-hand scratch state described in §3/§4.3: street,
// per-street contributions, the active PotManager, and board cards.
type GameHand struct {
	BigBlind           uint32
	NumStartingPlayers int
	Street             Street

	pots *potmgr.Manager

	streetContributions [numStreets][9]uint32
	streetNumBets       [numStreets]uint32

	LastAction *PlayerAction
	CurrentBet uint32
	MinRaise   uint32

	// lastFullRaiseSeat is the seat that most recently posted a raise
	// meeting min_raise; minRaiseLockedSeat, once set, names a seat that
	// must not re-raise until someone posts another full raise (§8
	// invariant 5: a short all-in that falls short of min_raise does not
	// reopen the betting to a seat that already opened the current raise).
	lastFullRaiseSeat  *int
	minRaiseLockedSeat *int

	Flop  []cards.Card // 3 cards once dealt
	Turn  *cards.Card
	River *cards.Card

	IndexToAct *int
}

// NewGameHand starts a fresh hand: a single uncapped main pot, min_raise
// seeded at the big blind, and num_starting_players snapshotting how many
// seats currently hold chips.
func NewGameHand(bigBlind uint32, seats *[9]*Player) *GameHand {
	n := 0
	for _, p := range seats {
		if p != nil && p.Money > 0 {
			n++
		}
	}
	return &GameHand{
		BigBlind:           bigBlind,
		NumStartingPlayers: n,
		Street:             Preflop,
		pots:               potmgr.New(),
		MinRaise:           bigBlind,
	}
}

// StartStreet resets the per-street betting state the spec calls for on
// every street transition: current_bet, index_to_act, each active player's
// last_action, and min_raise back to the big blind.
func (h *GameHand) StartStreet(street Street, seats *[9]*Player) {
	h.Street = street
	h.CurrentBet = 0
	h.IndexToAct = nil
	h.MinRaise = h.BigBlind
	h.lastFullRaiseSeat = nil
	h.minRaiseLockedSeat = nil
	for _, p := range seats {
		if p != nil && p.IsActive {
			p.ResetForNewStreet()
		}
	}
}

// ContributionFor reports how much seat i has put in on the current street.
func (h *GameHand) ContributionFor(seat int) uint32 {
	return h.streetContributions[h.Street][seat]
}

// Contribute records amount from seat/playerID into the current street's
// contribution row, bumps the street's bet counter when isRaise is set, and
// forwards the contribution to the PotManager for cap bookkeeping.
func (h *GameHand) Contribute(seat int, playerID uuid.UUID, amount uint32, allIn, isRaise bool) {
	h.streetContributions[h.Street][seat] += amount
	if isRaise {
		h.streetNumBets[h.Street]++
	}
	h.pots.Contribute(playerID, amount, allIn)
}

// NumBetsThisStreet reports how many raises/bets have occurred this street.
func (h *GameHand) NumBetsThisStreet() uint32 {
	return h.streetNumBets[h.Street]
}

// PotRepr returns each non-empty pot's money, for wire snapshots.
func (h *GameHand) PotRepr() []uint32 {
	return h.pots.SimpleRepr()
}

// TotalMoney sums every pot's money — used for the chip-conservation check.
func (h *GameHand) TotalMoney() uint32 {
	return h.pots.Total()
}

// CountPlayerCategories recomputes (num_active, num_settled, num_all_in) per
// §4.3: settled requires a non-all-in active player's street contribution to
// match current_bet, and explicitly excludes a still-pending big-blind
// posting (so the big blind retains the preflop option to raise).
func (h *GameHand) CountPlayerCategories(seats *[9]*Player) (numActive, numSettled, numAllIn int) {
	contributions := h.streetContributions[h.Street]
	for i, p := range seats {
		if p == nil {
			continue
		}
		if p.IsActive {
			numActive++
		}
		if p.IsAllIn() {
			numAllIn++
			continue
		}
		if p.LastAction == nil {
			continue
		}
		if p.LastAction.Kind == PostBigBlind {
			continue
		}
		if !p.IsActive {
			continue
		}
		if contributions[i] >= h.CurrentBet {
			numSettled++
		}
	}
	return numActive, numSettled, numAllIn
}

// GetHandStatus classifies the current betting round per §4.3.
func (h *GameHand) GetHandStatus(seats *[9]*Player) HandStatus {
	numActive, numSettled, numAllIn := h.CountPlayerCategories(seats)
	switch {
	case numActive == 1:
		return HandOver
	case numSettled+numAllIn == numActive:
		return NextStreet
	default:
		return KeepPlaying
	}
}

// AllInSituation reports whether betting is effectively finished for the
// rest of the hand: at least one active player is all-in and at most one
// active player still holds chips (§4.3).
func (h *GameHand) AllInSituation(seats *[9]*Player) bool {
	anyAllIn := false
	withChips := 0
	for _, p := range seats {
		if p == nil || !p.IsActive {
			continue
		}
		if p.IsAllIn() {
			anyAllIn = true
		} else {
			withChips++
		}
	}
	return anyAllIn && withChips <= 1
}

// determineBestHand evaluates a player's best 5-card hand once five board
// cards are present. Board cards are always fully dealt out by the time
// Showdown is reached (all-in situations deal the remaining streets
// immediately, per §9's recommended resolution of the pre-river open
// question), so this only needs the BestOfSeven path.
func (h *GameHand) determineBestHand(p *Player) (handeval.Result, bool) {
	if !p.IsActive || len(p.HoleCards) != 2 || len(h.Flop) != 3 || h.Turn == nil || h.River == nil {
		return handeval.Result{}, false
	}
	var hole [2]cards.Card
	copy(hole[:], p.HoleCards)
	board := [5]cards.Card{h.Flop[0], h.Flop[1], h.Flop[2], *h.Turn, *h.River}
	return handeval.BestOfSeven(hole, board), true
}

// getShowdownStartingIdx returns the lowest-indexed seat whose last action
// was a Bet, to start the reveal rotation from; when several seats bet the
// river this is not necessarily the last aggressor. Falls back to the
// street's usual starting seat if no seat's last action is a Bet.
func getShowdownStartingIdx(seats *[9]*Player, startingIdx int) int {
	for i, p := range seats {
		if p != nil && p.LastAction != nil && p.LastAction.Kind == Bet {
			return i
		}
	}
	return startingIdx
}

// DivvyPots settles every non-empty pot: at showdown, each pot's winner(s)
// are its highest-hand-result contributors (ties split evenly, remainder
// dropped); on a fold-through, the sole remaining active player takes every
// pot. Reveal order rotates from the last river aggressor (§4.2's
// "who must show" rule); here every contender who could still be winning as
// the rotation reaches them is marked as having to show, matching the
// reference's simplifying "show anyone who was ever the best hand so far"
// behavior.
func (h *GameHand) DivvyPots(seats *[9]*Player, configs map[uuid.UUID]*PlayerConfig, startingIdx int) []protocol.SettlementView {
	isShowdown := h.Street == Showdown

	handResults := make(map[uuid.UUID]handeval.Result)
	for _, p := range seats {
		if p == nil {
			continue
		}
		if _, known := configs[p.ID]; !known {
			continue
		}
		if result, ok := h.determineBestHand(p); ok {
			handResults[p.ID] = result
		}
	}

	showdownStart := getShowdownStartingIdx(seats, startingIdx)

	var out []protocol.SettlementView
	for potIdx, pot := range h.pots.Pots {
		if pot.Money == 0 {
			continue
		}

		var bestIDs, showingIDs, eligibleIDs map[uuid.UUID]bool
		var bestHand *handeval.Result
		var amount uint32

		if isShowdown {
			bestIDs = make(map[uuid.UUID]bool)
			showingIDs = make(map[uuid.UUID]bool)
			eligibleIDs = make(map[uuid.UUID]bool)
			for _, i := range rotation(showdownStart) {
				p := seats[i]
				if p == nil || !pot.IsEligible(p.ID) {
					continue
				}
				result, ok := handResults[p.ID]
				if !ok {
					continue
				}
				eligibleIDs[p.ID] = true
				switch {
				case bestHand == nil || result.Value > bestHand.Value:
					r := result
					bestHand = &r
					bestIDs = map[uuid.UUID]bool{p.ID: true}
					showingIDs[p.ID] = true
				case result.Value == bestHand.Value:
					bestIDs[p.ID] = true
					showingIDs[p.ID] = true
				}
			}
			if len(bestIDs) > 0 {
				amount = potmgr.WinningShare(pot.Money, len(bestIDs))
			}
		} else {
			bestIDs = make(map[uuid.UUID]bool)
			for _, p := range seats {
				if p != nil && p.IsActive {
					bestIDs[p.ID] = true
				}
			}
			showingIDs = bestIDs
			eligibleIDs = bestIDs
			amount = pot.Money
		}

		out = append(out, h.settlePlayers(seats, configs, handResults, potIdx, bestIDs, amount, showingIDs, eligibleIDs, showdownStart, isShowdown)...)
	}
	return out
}

func rotation(start int) []int {
	out := make([]int, 0, 9)
	for i := start; i < 9; i++ {
		out = append(out, i)
	}
	for i := 0; i < start; i++ {
		out = append(out, i)
	}
	return out
}

func (h *GameHand) settlePlayers(
	seats *[9]*Player,
	configs map[uuid.UUID]*PlayerConfig,
	handResults map[uuid.UUID]handeval.Result,
	potIdx int,
	bestIDs map[uuid.UUID]bool,
	amount uint32,
	showingIDs map[uuid.UUID]bool,
	eligibleIDs map[uuid.UUID]bool,
	startingIdx int,
	isShowdown bool,
) []protocol.SettlementView {
	var out []protocol.SettlementView
	for _, i := range rotation(startingIdx) {
		p := seats[i]
		if p == nil || !eligibleIDs[p.ID] {
			continue
		}
		name := "Player who left"
		if cfg, ok := configs[p.ID]; ok {
			name = cfg.Name
		}

		view := protocol.SettlementView{
			Index:      i,
			PlayerName: name,
			IsShowdown: isShowdown,
			PotIndex:   potIdx,
		}

		if bestIDs[p.ID] {
			view.Winner = true
			view.Payout = amount
			p.Money += amount
		}

		if isShowdown && showingIDs[p.ID] && len(p.HoleCards) == 2 {
			view.HoleCards = p.HoleCards[0].String() + p.HoleCards[1].String()
			if result, ok := handResults[p.ID]; ok {
				view.HandRank = result.Ranking.String()
			}
		}

		out = append(out, view)
	}
	return out
}
