package table

import (
	"testing"

	"github.com/ajstarna/holdem/internal/cards"
	"github.com/google/uuid"
)

func mkSeats(moneys ...uint32) [9]*Player {
	var seats [9]*Player
	for i, m := range moneys {
		seats[i] = NewPlayer(uuid.New(), i, true, m)
	}
	return seats
}

func TestNewGameHandSnapshotsStartingPlayersAndSeedsMinRaise(t *testing.T) {
	seats := mkSeats(1000, 1000, 0, 500)
	hand := NewGameHand(8, &seats)

	if hand.NumStartingPlayers != 3 {
		t.Errorf("expected 3 starting players (broke seat excluded), got %d", hand.NumStartingPlayers)
	}
	if hand.MinRaise != 8 {
		t.Errorf("expected min_raise seeded at the big blind (8), got %d", hand.MinRaise)
	}
	if hand.Street != Preflop {
		t.Errorf("expected a fresh hand to start on Preflop")
	}
}

func TestStartStreetResetsBettingState(t *testing.T) {
	seats := mkSeats(1000, 1000)
	hand := NewGameHand(8, &seats)
	hand.CurrentBet = 40
	hand.MinRaise = 40
	idx := 1
	hand.IndexToAct = &idx
	seats[0].LastAction = &PlayerAction{Kind: Bet, Amount: 40}

	hand.StartStreet(Flop, &seats)

	if hand.CurrentBet != 0 {
		t.Errorf("expected current_bet reset to 0, got %d", hand.CurrentBet)
	}
	if hand.MinRaise != 8 {
		t.Errorf("expected min_raise reset to the big blind, got %d", hand.MinRaise)
	}
	if hand.IndexToAct != nil {
		t.Errorf("expected index_to_act cleared")
	}
	if seats[0].LastAction != nil {
		t.Errorf("expected last_action cleared on the new street")
	}
}

func TestGetHandStatusClassification(t *testing.T) {
	t.Run("one active player is hand over", func(t *testing.T) {
		seats := mkSeats(1000, 1000)
		hand := NewGameHand(8, &seats)
		seats[1].IsActive = false
		if got := hand.GetHandStatus(&seats); got != HandOver {
			t.Errorf("GetHandStatus = %v, want HandOver", got)
		}
	})

	t.Run("everyone settled at current bet advances the street", func(t *testing.T) {
		seats := mkSeats(1000, 1000)
		hand := NewGameHand(8, &seats)
		hand.CurrentBet = 20
		hand.Contribute(0, seats[0].ID, 20, false, false)
		hand.Contribute(1, seats[1].ID, 20, false, false)
		seats[0].LastAction = &PlayerAction{Kind: Call}
		seats[1].LastAction = &PlayerAction{Kind: Check}
		if got := hand.GetHandStatus(&seats); got != NextStreet {
			t.Errorf("GetHandStatus = %v, want NextStreet", got)
		}
	})

	t.Run("an unmatched contribution keeps playing", func(t *testing.T) {
		seats := mkSeats(1000, 1000)
		hand := NewGameHand(8, &seats)
		hand.CurrentBet = 20
		hand.Contribute(0, seats[0].ID, 20, false, false)
		seats[0].LastAction = &PlayerAction{Kind: Bet, Amount: 20}
		if got := hand.GetHandStatus(&seats); got != KeepPlaying {
			t.Errorf("GetHandStatus = %v, want KeepPlaying", got)
		}
	})

	t.Run("a pending big blind retains the option to raise", func(t *testing.T) {
		seats := mkSeats(1000, 1000)
		hand := NewGameHand(8, &seats)
		hand.CurrentBet = 8
		hand.Contribute(0, seats[0].ID, 4, false, false)
		hand.Contribute(1, seats[1].ID, 8, false, false)
		hand.Contribute(0, seats[0].ID, 4, false, false)
		seats[0].LastAction = &PlayerAction{Kind: Call}
		seats[1].LastAction = &PlayerAction{Kind: PostBigBlind}
		if got := hand.GetHandStatus(&seats); got != KeepPlaying {
			t.Errorf("GetHandStatus = %v, want KeepPlaying (big blind still owed the option)", got)
		}
	})
}

func TestAllInSituation(t *testing.T) {
	t.Run("no all-in player is not an all-in situation", func(t *testing.T) {
		seats := mkSeats(1000, 1000)
		hand := NewGameHand(8, &seats)
		if hand.AllInSituation(&seats) {
			t.Errorf("expected no all-in situation")
		}
	})

	t.Run("one all-in and one with chips is an all-in situation", func(t *testing.T) {
		seats := mkSeats(0, 1000)
		hand := NewGameHand(8, &seats)
		if !hand.AllInSituation(&seats) {
			t.Errorf("expected an all-in situation")
		}
	})

	t.Run("two players both with chips is not", func(t *testing.T) {
		seats := mkSeats(500, 1000)
		hand := NewGameHand(8, &seats)
		if hand.AllInSituation(&seats) {
			t.Errorf("expected no all-in situation when two active seats still hold chips")
		}
	})
}

// TestDivvyPotsInstantFold mirrors the "instant fold" concrete scenario: the
// sole remaining active player takes the whole pot without a showdown.
func TestDivvyPotsInstantFold(t *testing.T) {
	seats := mkSeats(1000, 1000)
	hand := NewGameHand(8, &seats)
	configs := map[uuid.UUID]*PlayerConfig{
		seats[0].ID: NewPlayerConfig(seats[0].ID, nil),
		seats[1].ID: NewPlayerConfig(seats[1].ID, nil),
	}

	// seat 1 posts small blind 4, seat 0 posts big blind 8, seat 1 folds.
	seats[1].Money -= 4
	hand.Contribute(1, seats[1].ID, 4, false, false)
	seats[0].Money -= 8
	hand.CurrentBet = 8
	hand.Contribute(0, seats[0].ID, 8, false, false)
	seats[1].IsActive = false

	settlements := hand.DivvyPots(&seats, configs, 1)

	if seats[0].Money != 1004 {
		t.Errorf("expected seat 0 money 1004, got %d", seats[0].Money)
	}
	if got := hand.TotalMoney(); got != 12 {
		t.Fatalf("sanity: pot should hold the 12 posted, got %d", got)
	}

	var winnerSeen bool
	for _, s := range settlements {
		if s.Winner {
			winnerSeen = true
			if s.Index != 0 {
				t.Errorf("expected seat 0 to be the winner, got seat %d", s.Index)
			}
		}
	}
	if !winnerSeen {
		t.Errorf("expected exactly one winning settlement entry")
	}
}

// TestDivvyPotsShowdownSplitsOnATie mirrors the even-split decision in §9:
// tied winners split the pot, remainder dropped.
func TestDivvyPotsShowdownSplitsOnATie(t *testing.T) {
	seats := mkSeats(1000, 1000)
	hand := NewGameHand(8, &seats)
	hand.Street = Showdown

	flop := []cards.Card{{Rank: cards.Two, Suit: cards.Clubs}, {Rank: cards.Seven, Suit: cards.Diamonds}, {Rank: cards.Nine, Suit: cards.Hearts}}
	turn := cards.Card{Rank: cards.Jack, Suit: cards.Spades}
	river := cards.Card{Rank: cards.King, Suit: cards.Clubs}
	hand.Flop = flop
	hand.Turn = &turn
	hand.River = &river

	seats[0].HoleCards = []cards.Card{{Rank: cards.Ace, Suit: cards.Hearts}, {Rank: cards.Three, Suit: cards.Hearts}}
	seats[1].HoleCards = []cards.Card{{Rank: cards.Ace, Suit: cards.Spades}, {Rank: cards.Three, Suit: cards.Spades}}

	configs := map[uuid.UUID]*PlayerConfig{
		seats[0].ID: NewPlayerConfig(seats[0].ID, nil),
		seats[1].ID: NewPlayerConfig(seats[1].ID, nil),
	}

	hand.Contribute(0, seats[0].ID, 100, false, false)
	hand.Contribute(1, seats[1].ID, 100, false, false)

	settlements := hand.DivvyPots(&seats, configs, 0)

	winners := 0
	for _, s := range settlements {
		if s.Winner {
			winners++
			if s.Payout != 100 {
				t.Errorf("expected each tied winner to receive 100, got %d", s.Payout)
			}
		}
	}
	if winners != 2 {
		t.Errorf("expected both identical hands to win, got %d winners", winners)
	}
}

func TestContributionForTracksPerStreetAmounts(t *testing.T) {
	seats := mkSeats(1000)
	hand := NewGameHand(8, &seats)
	hand.Contribute(0, seats[0].ID, 20, false, true)
	if got := hand.ContributionFor(0); got != 20 {
		t.Errorf("ContributionFor(0) = %d, want 20", got)
	}
	if got := hand.NumBetsThisStreet(); got != 1 {
		t.Errorf("NumBetsThisStreet() = %d, want 1", got)
	}

	hand.StartStreet(Flop, &seats)
	if got := hand.ContributionFor(0); got != 0 {
		t.Errorf("expected a new street's contribution to start at 0, got %d", got)
	}
}
