package table

import (
	"github.com/ajstarna/holdem/internal/protocol"
	"github.com/google/uuid"
)

// broadcastState builds the shared part of a game_state frame and unicasts
// a personalized copy (your_index, hole_cards) to every seated config.
// settlements, when non-nil, marks the frame as the hand-over broadcast.
func (t *Table) broadcastState(hand *GameHand, settlements []protocol.SettlementView) {
	base := protocol.GameStateFrame{
		MsgType:        protocol.MsgGameState,
		Name:           t.Name,
		MaxPlayers:     t.MaxPlayers,
		SmallBlind:     t.SmallBlind,
		BigBlind:       t.BigBlind,
		BuyIn:          t.BuyIn,
		Password:       t.Password,
		ButtonIdx:      t.ButtonIdx,
		HandNum:        t.HandNum,
		AllInSituation: hand.AllInSituation(&t.Seats),
		HandOver:       settlements != nil,
		Settlements:    settlements,
	}

	allInSituation := base.AllInSituation
	for i, p := range t.Seats {
		if p == nil {
			continue
		}
		if _, known := t.Configs[p.ID]; !known {
			continue
		}
		view := &protocol.PlayerView{
			Index:        i,
			PlayerName:   t.Configs[p.ID].Name,
			Money:        p.Money,
			IsActive:     p.IsActive,
			IsSittingOut: p.IsSittingOut,
			IsAllIn:      p.IsAllIn(),
		}
		if p.LastAction != nil {
			view.LastAction = p.LastAction.Kind.String()
		}
		if allInSituation && p.IsActive && len(p.HoleCards) == 2 {
			view.HoleCards = p.HoleCards[0].String() + p.HoleCards[1].String()
		}
		if hand != nil {
			view.PreflopCont = hand.streetContributions[Preflop][i]
			view.FlopCont = hand.streetContributions[Flop][i]
			view.TurnCont = hand.streetContributions[Turn][i]
			view.RiverCont = hand.streetContributions[River][i]
		}
		base.Players[i] = view
	}

	if hand != nil {
		base.Street = hand.Street.String()
		base.CurrentBet = &hand.CurrentBet
		base.MinRaise = &hand.MinRaise
		if len(hand.Flop) == 3 {
			base.Flop = []string{hand.Flop[0].String(), hand.Flop[1].String(), hand.Flop[2].String()}
		}
		if hand.Turn != nil {
			base.Turn = hand.Turn.String()
		}
		if hand.River != nil {
			base.River = hand.River.String()
		}
		base.Pots = hand.PotRepr()
		base.IndexToAct = hand.IndexToAct
	}

	for i, p := range t.Seats {
		if p == nil {
			continue
		}
		cfg, known := t.Configs[p.ID]
		if !known {
			continue
		}
		frame := base
		frame.YourIndex = i
		if len(p.HoleCards) == 2 {
			frame.HoleCards = p.HoleCards[0].String() + p.HoleCards[1].String()
		}
		cfg.send(frame)
	}
}

// broadcastSuspended tells every seated client the table can't play a hand
// right now (fewer than two active seats).
func (t *Table) broadcastSuspended() {
	for _, cfg := range t.Configs {
		frame := protocol.GameStateFrame{
			MsgType:       protocol.MsgGameState,
			Name:          t.Name,
			MaxPlayers:    t.MaxPlayers,
			SmallBlind:    t.SmallBlind,
			BigBlind:      t.BigBlind,
			BuyIn:         t.BuyIn,
			ButtonIdx:     t.ButtonIdx,
			HandNum:       t.HandNum,
			GameSuspended: true,
		}
		cfg.send(frame)
	}
}

// broadcastNewHand announces the hand about to be dealt.
func (t *Table) broadcastNewHand() {
	frame := protocol.NewNewHandFrame(t.HandNum, t.ButtonIdx)
	for _, cfg := range t.Configs {
		cfg.send(frame)
	}
}

// sendError unicasts a rejection frame to one identity, if still seated.
func (t *Table) sendError(id uuid.UUID, kind, reason string) {
	cfg, ok := t.Configs[id]
	if !ok {
		return
	}
	cfg.send(protocol.NewErrorFrame(kind, reason))
}
