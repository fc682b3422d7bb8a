package table

import "math/rand"

// botAction synthesizes a PlayerAction for a non-human seat. It is a
// straight probabilistic policy, not a hand-strength evaluation: 20% fold,
// 35% check, 15% bet, 30% call. The proposed action still passes through
// the same legality check as a human's (a Fold with nothing to call
// becomes a Check, a Check facing a bet is rejected and retried), so this
// only needs to pick a plausible intent, not a provably legal one.
func botAction(p *Player) PlayerAction {
	roll := rand.Intn(100)
	switch {
	case roll < 20:
		return PlayerAction{Kind: Fold}
	case roll < 55:
		return PlayerAction{Kind: Check}
	case roll < 70:
		return PlayerAction{Kind: Bet, Amount: botBetAmount(p)}
	default:
		return PlayerAction{Kind: Call}
	}
}

// botBetAmount picks a bet's new total contribution level for the street. A
// short stack (≤ 100) proposes its whole remaining stack as that level, which
// is an all-in only when the bot has put nothing in on this street yet;
// otherwise the level is a random amount from 1 to half its remaining stack
// minus one. The level is not raised to the current bet first.
func botBetAmount(p *Player) uint32 {
	if p.Money <= 100 {
		return p.Money
	}
	half := p.Money / 2
	if half <= 1 {
		return 1
	}
	return uint32(rand.Intn(int(half-1))) + 1
}
