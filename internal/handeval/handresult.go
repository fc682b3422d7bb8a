// Package handeval ranks five-card poker hands and picks the best five of
// seven, packing the result into a single comparable integer.
package handeval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ajstarna/holdem/internal/cards"
	"github.com/chehsunliu/poker"
)

// Ranking is the class of a hand, ordered worst to best so that
// int(Ranking) participates directly in the packed HandResult value.
type Ranking uint8

const (
	HighCard Ranking = iota + 1
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

func (r Ranking) String() string {
	switch r {
	case HighCard:
		return "HighCard"
	case Pair:
		return "Pair"
	case TwoPair:
		return "TwoPair"
	case ThreeOfAKind:
		return "ThreeOfAKind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "FullHouse"
	case FourOfAKind:
		return "FourOfAKind"
	case StraightFlush:
		return "StraightFlush"
	case RoyalFlush:
		return "RoyalFlush"
	default:
		return "Unknown"
	}
}

// Result is a hand's classification plus the packed comparison value: the
// high nibble holds the Ranking, the remaining 20 bits hold the constituent
// cards' ranks then the kickers' ranks, each in a 4-bit slot, most
// significant first. Integer comparison of Value reproduces standard
// Texas Hold'em hand ordering.
type Result struct {
	Ranking     Ranking
	Constituent []cards.Card
	Kickers     []cards.Card
	Value       uint32
}

// String renders a hand result like "ThreeOfAKind: Qc-Qd-Qh, 4d-9s".
func (r Result) String() string {
	return fmt.Sprintf("%s: %s, %s", r.Ranking, cardsString(r.Constituent), cardsString(r.Kickers))
}

func cardsString(cs []cards.Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, "-")
}

func scoreHand(ranking Ranking, constituent, kickers []cards.Card) uint32 {
	value := uint32(ranking) << 20

	shift := uint32(16)
	for i := len(constituent) - 1; i >= 0; i-- {
		value += uint32(constituent[i].Rank) << shift
		shift -= 4
	}
	for i := len(kickers) - 1; i >= 0; i-- {
		value += uint32(kickers[i].Rank) << shift
		shift -= 4
	}
	return value
}

// Analyze classifies an exact five-card hand and returns its Result.
// Panics if fewer or more than five cards are given: a caller error, not a
// runtime condition the engine can recover from.
func Analyze(hand []cards.Card) Result {
	if len(hand) != 5 {
		panic(fmt.Sprintf("handeval: Analyze requires exactly 5 cards, got %d", len(hand)))
	}

	five := make([]cards.Card, 5)
	copy(five, hand)
	sort.Slice(five, func(i, j int) bool { return five[i].Rank < five[j].Rank })

	ranking, isLowAceStraight := classify(five)

	rankCounts := make(map[cards.Rank]int, 5)
	for _, c := range five {
		rankCounts[c.Rank]++
	}

	var constituent, kickers []cards.Card

	switch ranking {
	case RoyalFlush, StraightFlush, Flush, Straight:
		constituent = append(constituent, five...)
	case FourOfAKind:
		for _, c := range five {
			if rankCounts[c.Rank] == 4 {
				constituent = append(constituent, c)
			} else {
				kickers = append(kickers, c)
			}
		}
	case FullHouse:
		for _, c := range five {
			if rankCounts[c.Rank] == 2 || rankCounts[c.Rank] == 3 {
				constituent = append(constituent, c)
			} else {
				kickers = append(kickers, c)
			}
		}
	case ThreeOfAKind:
		for _, c := range five {
			if rankCounts[c.Rank] == 3 {
				constituent = append(constituent, c)
			} else {
				kickers = append(kickers, c)
			}
		}
	case TwoPair, Pair:
		for _, c := range five {
			if rankCounts[c.Rank] == 2 {
				constituent = append(constituent, c)
			} else {
				kickers = append(kickers, c)
			}
		}
	default: // HighCard
		constituent = append(constituent, five[4])
		kickers = append(kickers, five[:4]...)
	}

	sort.Slice(constituent, func(i, j int) bool { return constituent[i].Rank < constituent[j].Rank })

	// A full house's triple always outranks its pair, so when the sort put
	// the triple first (its rank is lower than the pair's), flip the order.
	if ranking == FullHouse && constituent[0].Rank == constituent[2].Rank {
		reverse(constituent)
	}
	if isLowAceStraight {
		// The wheel (A-2-3-4-5) scores as if the Ace were rank 1: move it
		// from the high end (where the rank sort put it) to the low end.
		ace := constituent[len(constituent)-1]
		constituent = append([]cards.Card{ace}, constituent[:len(constituent)-1]...)
	}

	sort.Slice(kickers, func(i, j int) bool { return kickers[i].Rank < kickers[j].Rank })

	return Result{
		Ranking:     ranking,
		Constituent: constituent,
		Kickers:     kickers,
		Value:       scoreHand(ranking, constituent, kickers),
	}
}

// classify asks chehsunliu/poker's evaluator which of its nine hand classes
// a sorted five-card hand belongs to, the same library
// pkg/poker/hand_evaluator.go mines for EvaluateHand. chehsunliu folds royal
// flush into its straight-flush class (rank 1 covers both), so the
// royal/plain split is resolved locally: a class-1 hand is RoyalFlush only
// when its top card is a true ace-high straight flush, not the wheel (whose
// top card is also an Ace after the ascending sort, but whose straight is
// A-2-3-4-5 rather than 10-J-Q-K-A).
func classify(five []cards.Card) (ranking Ranking, isLowAceStraight bool) {
	lib := make([]poker.Card, len(five))
	for i, c := range five {
		lib[i] = poker.NewCard(c.String())
	}
	class := poker.RankClass(poker.Evaluate(lib))

	isWheel := five[0].Rank == cards.Two && five[4].Rank == cards.Ace

	switch class {
	case 1:
		if five[4].Rank == cards.Ace && !isWheel {
			ranking = RoyalFlush
		} else {
			ranking = StraightFlush
		}
	case 2:
		ranking = FourOfAKind
	case 3:
		ranking = FullHouse
	case 4:
		ranking = Flush
	case 5:
		ranking = Straight
	case 6:
		ranking = ThreeOfAKind
	case 7:
		ranking = TwoPair
	case 8:
		ranking = Pair
	default:
		ranking = HighCard
	}

	isLowAceStraight = (ranking == Straight || ranking == StraightFlush) && isWheel
	return ranking, isLowAceStraight
}

func reverse(cs []cards.Card) {
	for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
		cs[i], cs[j] = cs[j], cs[i]
	}
}

// BestOfSeven enumerates all C(7,5)=21 five-card subsets of hole+board and
// returns the highest-scoring Result. Requires exactly 2 hole cards and 5
// board cards.
func BestOfSeven(hole [2]cards.Card, board [5]cards.Card) Result {
	seven := []cards.Card{hole[0], hole[1], board[0], board[1], board[2], board[3], board[4]}
	return bestOf(seven)
}

// BestAvailable evaluates the best hand obtainable from hole cards plus
// whatever board cards have been dealt so far (n >= 5 total cards). The
// table's showdown does not call it: it always evaluates a complete board
// with BestOfSeven. The second return is false if fewer than 5 cards are
// available.
func BestAvailable(hole []cards.Card, board []cards.Card) (Result, bool) {
	all := append(append([]cards.Card{}, hole...), board...)
	if len(all) < 5 {
		return Result{}, false
	}
	return bestOf(all), true
}

func bestOf(all []cards.Card) Result {
	var best Result
	haveBest := false
	n := len(all)
	combinationsOfFive(n, func(idxs [5]int) {
		hand := [5]cards.Card{all[idxs[0]], all[idxs[1]], all[idxs[2]], all[idxs[3]], all[idxs[4]]}
		result := Analyze(hand[:])
		if !haveBest || result.Value > best.Value {
			best = result
			haveBest = true
		}
	})
	return best
}

// combinationsOfFive calls fn once per 5-combination of indices in [0,n).
func combinationsOfFive(n int, fn func([5]int)) {
	if n < 5 {
		return
	}
	var idx [5]int
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == 5 {
			fn(idx)
			return
		}
		for i := start; i < n; i++ {
			idx[depth] = i
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
}

// Compare returns -1, 0, or 1 as a compares worse than, equal to, or better
// than b.
func Compare(a, b Result) int {
	switch {
	case a.Value < b.Value:
		return -1
	case a.Value > b.Value:
		return 1
	default:
		return 0
	}
}
