package table

import (
	"fmt"

	"github.com/ajstarna/holdem/internal/protocol"
	"github.com/google/uuid"
)

// drainMeta processes every meta-action queued since the last drain.
// Admin commands are deferred (re-queued) unless betweenHands is true, per
// §4.4.3: an admin command received mid-hand waits for the next between-
// hands point instead of mutating a running GameHand.
func (t *Table) drainMeta(betweenHands bool, hand *GameHand) {
	for _, m := range t.takeMeta() {
		switch m.Kind {
		case MetaJoin:
			t.handleJoin(m, hand)
		case MetaLeave:
			t.handleLeave(m)
		case MetaSitOut:
			t.handleSitOut(m, hand)
		case MetaImBack:
			t.handleImBack(m, hand)
		case MetaSetPlayerName:
			t.handleSetPlayerName(m)
		case MetaSendPlayerName:
			t.handleSendPlayerName(m)
		case MetaUpdateAddress:
			t.handleUpdateAddress(m, hand)
		case MetaTableInfo:
			t.handleTableInfo(m)
		case MetaChat:
			t.handleChat(m)
		case MetaAdmin:
			if !betweenHands {
				t.requeueMeta(m)
				continue
			}
			t.handleAdmin(m)
		}
	}
}

// evictConfiglessSeats drops the Player struct for any seat whose config
// was already removed by a prior Leave or heart-beat failure (§9:
// "configless seats").
func (t *Table) evictConfiglessSeats() {
	for i, p := range t.Seats {
		if p == nil {
			continue
		}
		if _, ok := t.Configs[p.ID]; !ok {
			t.Seats[i] = nil
		}
	}
}

// evictStaleHeartbeats drops any seated identity that has gone silent for
// PlayerTimeout, notifying the Hub so it can release the slot.
func (t *Table) evictStaleHeartbeats() {
	for id, cfg := range t.Configs {
		if !cfg.HasActiveHeartBeat(PlayerTimeout) {
			delete(t.Configs, id)
			t.hub.Returned(t.Name, cfg, ReturnedReason{Kind: HeartBeatFailed})
		}
	}
}

func (t *Table) handleJoin(m MetaAction, hand *GameHand) {
	idx, err := t.addHuman(m.Config, m.Password)
	if err != nil {
		jerr, _ := err.(*JoinTableError)
		t.hub.Returned(t.Name, m.Config, ReturnedReason{Kind: FailureToJoin, Inner: jerr})
		return
	}
	_ = idx
	t.broadcastState(hand, nil)
}

// addHuman seats config at the first empty slot, or no-ops if the identity
// is already seated (an idempotent re-seat covers a Leave/Join race).
func (t *Table) addHuman(config *PlayerConfig, password string) (int, error) {
	if t.Private {
		if password == "" {
			return 0, &JoinTableError{Kind: MissingPassword}
		}
		if password != t.Password {
			return 0, &JoinTableError{Kind: InvalidPassword}
		}
	}
	return t.addPlayer(config, func(seat int) *Player {
		return NewPlayer(config.ID, seat, true, t.BuyIn)
	})
}

// AddBot seats a fresh bot player under the given display name. Exported for
// the Hub to pre-seed a table's requested bot count at creation time, before
// the table's goroutine is started.
func (t *Table) AddBot(name string) (int, error) {
	return t.addBot(name)
}

// addBot seats a fresh bot player under the given display name.
func (t *Table) addBot(name string) (int, error) {
	id := uuid.New()
	config := NewPlayerConfig(id, nil)
	config.Name = name
	return t.addPlayer(config, func(seat int) *Player {
		return NewPlayer(id, seat, false, t.BuyIn)
	})
}

func (t *Table) addPlayer(config *PlayerConfig, makePlayer func(seat int) *Player) (int, error) {
	for i, p := range t.Seats {
		if p != nil && p.ID == config.ID {
			t.Configs[config.ID] = config
			return i, nil
		}
	}

	seated := 0
	for _, p := range t.Seats {
		if p != nil {
			seated++
		}
	}
	if seated >= int(t.MaxPlayers) {
		return 0, &JoinTableError{Kind: GameIsFull}
	}

	for i, p := range t.Seats {
		if p == nil {
			t.Seats[i] = makePlayer(i)
			t.Configs[config.ID] = config
			return i, nil
		}
	}
	return 0, &JoinTableError{Kind: GameIsFull}
}

func (t *Table) handleLeave(m MetaAction) {
	cfg, ok := t.Configs[m.PlayerID]
	if !ok {
		return
	}
	delete(t.Configs, m.PlayerID)
	left := protocol.NewPlayerLeftFrame(cfg.Name)
	for _, other := range t.Configs {
		other.send(left)
	}
	t.hub.Returned(t.Name, cfg, ReturnedReason{Kind: Left})
}

func (t *Table) handleSitOut(m MetaAction, hand *GameHand) {
	for _, p := range t.Seats {
		if p != nil && p.ID == m.PlayerID {
			p.IsSittingOut = true
		}
	}
	t.broadcastState(hand, nil)
}

func (t *Table) handleImBack(m MetaAction, hand *GameHand) {
	for _, p := range t.Seats {
		if p != nil && p.ID == m.PlayerID {
			p.IsSittingOut = false
		}
	}
	if cfg, ok := t.Configs[m.PlayerID]; ok {
		cfg.Touch()
	}
	t.broadcastState(hand, nil)
}

func (t *Table) handleSetPlayerName(m MetaAction) {
	cfg, ok := t.Configs[m.PlayerID]
	if !ok {
		return
	}
	cfg.Name = m.Name
	cfg.send(protocol.NewPlayerNameFrame(cfg.Name))
}

func (t *Table) handleSendPlayerName(m MetaAction) {
	cfg, ok := t.Configs[m.PlayerID]
	if !ok {
		return
	}
	cfg.send(protocol.NewPlayerNameFrame(cfg.Name))
}

func (t *Table) handleUpdateAddress(m MetaAction, hand *GameHand) {
	if cfg, ok := t.Configs[m.PlayerID]; ok {
		cfg.Reply = m.Reply
	}
	t.broadcastState(hand, nil)
}

func (t *Table) handleTableInfo(m MetaAction) {
	numHumans, numBots := 0, 0
	for _, p := range t.Seats {
		if p == nil {
			continue
		}
		if p.HumanControlled {
			numHumans++
		} else {
			numBots++
		}
	}
	frame := protocol.TableInfoFrame{
		MsgType:    protocol.MsgTableInfo,
		Name:       t.Name,
		SmallBlind: t.SmallBlind,
		BigBlind:   t.BigBlind,
		BuyIn:      t.BuyIn,
		MaxPlayers: t.MaxPlayers,
		NumSeated:  numHumans + numBots,
		Private:    t.Private,
	}
	if m.Reply != nil {
		m.Reply(frame)
	}
}

func (t *Table) handleChat(m MetaAction) {
	cfg, ok := t.Configs[m.PlayerID]
	if !ok {
		return
	}
	cfg.Touch()
	frame := protocol.NewChatFrame(cfg.Name, m.Text)
	for _, c := range t.Configs {
		c.send(frame)
	}
}

func (t *Table) handleAdmin(m MetaAction) {
	if m.PlayerID != t.AdminID {
		t.sendError(m.PlayerID, protocol.ErrNotAdmin, "you cannot update a table that you are not the admin for")
		return
	}
	if !t.Private {
		t.sendError(m.PlayerID, protocol.ErrNotPrivate, "you cannot update a table that is not private")
		return
	}

	var text string
	switch m.AdminVerb {
	case AdminSmallBlind:
		t.SmallBlind = m.AdminUint
		text = fmt.Sprintf("the small blind has been changed to %d", m.AdminUint)
	case AdminBigBlind:
		t.BigBlind = m.AdminUint
		text = fmt.Sprintf("the big blind has been changed to %d", m.AdminUint)
	case AdminBuyIn:
		t.BuyIn = m.AdminUint
		text = fmt.Sprintf("the buy in has been changed to %d", m.AdminUint)
	case AdminSetPassword:
		t.Password = m.AdminState
		t.Private = true
		text = fmt.Sprintf("the password has been changed to %s", m.AdminState)
	case AdminShowPassword:
		if t.Password == "" {
			text = "the table has no password"
		} else {
			text = fmt.Sprintf("the password is %s", t.Password)
		}
	case AdminAddBot:
		if _, err := t.addBot("Bot"); err != nil {
			t.sendError(m.PlayerID, protocol.ErrUnableToAddBot, err.Error())
			return
		}
		text = "a bot has been added"
	case AdminRemoveBot:
		removed := false
		for i, p := range t.Seats {
			if p != nil && !p.HumanControlled {
				delete(t.Configs, p.ID)
				t.Seats[i] = nil
				removed = true
				break
			}
		}
		if !removed {
			t.sendError(m.PlayerID, protocol.ErrUnableToRemoveBot, "no bot to remove")
			return
		}
		text = "a bot has been removed"
	case AdminRestart:
		for _, p := range t.Seats {
			if p != nil {
				p.Money = t.BuyIn
			}
		}
		text = "the game has been restarted to its original state"
	}

	if cfg, ok := t.Configs[m.PlayerID]; ok {
		cfg.send(protocol.NewAdminSuccessFrame(text))
	}
}
