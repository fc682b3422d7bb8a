package table

import (
	"os"
	"testing"

	"github.com/ajstarna/holdem/internal/cards"
	"github.com/ajstarna/holdem/internal/protocol"
	"github.com/decred/slog"
	"github.com/google/uuid"
)

// testLogger builds a quiet logger, matching the decred/slog test pattern
// used throughout this codebase (critical level only, to keep test output
// readable).
func testLogger() slog.Logger {
	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("TEST")
	log.SetLevel(slog.LevelCritical)
	return log
}

// stubNotifier records the calls a Table makes back to its Hub, without
// needing a real hub.Hub in this package's tests.
type stubNotifier struct {
	gameOvers []string
	returns   []ReturnedReason
}

func (s *stubNotifier) GameOver(tableName string) {
	s.gameOvers = append(s.gameOvers, tableName)
}

func (s *stubNotifier) Returned(tableName string, config *PlayerConfig, reason ReturnedReason) {
	s.returns = append(s.returns, reason)
}

func mkTable(maxPlayers uint8) (*Table, *stubNotifier) {
	notifier := &stubNotifier{}
	deck := cards.NewRiggedDeck()
	tbl := NewTable("TEST", 4, 8, 1000, maxPlayers, "", deck, notifier, testLogger())
	return tbl, notifier
}

func TestAddHumanSeatsAtFirstEmptySlotAndIsIdempotent(t *testing.T) {
	tbl, _ := mkTable(9)
	id := uuid.New()
	cfg := NewPlayerConfig(id, nil)

	idx, err := tbl.addHuman(cfg, "")
	if err != nil {
		t.Fatalf("addHuman: %v", err)
	}
	if idx != 0 {
		t.Errorf("expected first seat at index 0, got %d", idx)
	}
	if tbl.Seats[0] == nil || tbl.Seats[0].ID != id {
		t.Fatalf("expected seat 0 occupied by %s", id)
	}

	// Re-adding the same identity is an idempotent reseat, not a new seat.
	idx2, err := tbl.addHuman(cfg, "")
	if err != nil {
		t.Fatalf("addHuman (reseat): %v", err)
	}
	if idx2 != 0 {
		t.Errorf("expected reseat to report the same index 0, got %d", idx2)
	}
	if tbl.Seats[1] != nil {
		t.Errorf("expected no second seat consumed by the idempotent reseat")
	}
}

func TestAddHumanRejectsAFullTable(t *testing.T) {
	tbl, _ := mkTable(1)
	cfg1 := NewPlayerConfig(uuid.New(), nil)
	if _, err := tbl.addHuman(cfg1, ""); err != nil {
		t.Fatalf("addHuman: %v", err)
	}

	cfg2 := NewPlayerConfig(uuid.New(), nil)
	_, err := tbl.addHuman(cfg2, "")
	jerr, ok := err.(*JoinTableError)
	if !ok || jerr.Kind != GameIsFull {
		t.Fatalf("expected GameIsFull, got %v", err)
	}
}

func TestAddHumanRequiresThePasswordOnAPrivateTable(t *testing.T) {
	tbl, _ := mkTable(9)
	tbl.Private = true
	tbl.Password = "secret"
	cfg := NewPlayerConfig(uuid.New(), nil)

	if _, err := tbl.addHuman(cfg, ""); err == nil {
		t.Fatalf("expected an error joining a private table with no password")
	} else if jerr := err.(*JoinTableError); jerr.Kind != MissingPassword {
		t.Errorf("expected MissingPassword, got %v", jerr.Kind)
	}

	if _, err := tbl.addHuman(cfg, "wrong"); err == nil {
		t.Fatalf("expected an error joining with the wrong password")
	} else if jerr := err.(*JoinTableError); jerr.Kind != InvalidPassword {
		t.Errorf("expected InvalidPassword, got %v", jerr.Kind)
	}

	if _, err := tbl.addHuman(cfg, "secret"); err != nil {
		t.Errorf("expected the correct password to succeed, got %v", err)
	}
}

func TestAddBotSeatsANonHumanPlayer(t *testing.T) {
	tbl, _ := mkTable(9)
	idx, err := tbl.AddBot("Bot 0")
	if err != nil {
		t.Fatalf("AddBot: %v", err)
	}
	p := tbl.Seats[idx]
	if p == nil || p.HumanControlled {
		t.Fatalf("expected a non-human seat at %d", idx)
	}
	cfg, ok := tbl.Configs[p.ID]
	if !ok || cfg.Name != "Bot 0" {
		t.Errorf("expected the bot's config to carry its display name")
	}
}

func TestAdvanceButtonSkipsEmptySittingOutAndBrokeSeats(t *testing.T) {
	tbl, _ := mkTable(9)
	tbl.Seats[0] = NewPlayer(uuid.New(), 0, true, 1000)
	tbl.Seats[2] = NewPlayer(uuid.New(), 2, true, 1000)
	tbl.Seats[2].IsSittingOut = true
	tbl.Seats[4] = NewPlayer(uuid.New(), 4, true, 0)
	tbl.Seats[6] = NewPlayer(uuid.New(), 6, true, 1000)
	tbl.ButtonIdx = 0

	tbl.advanceButton()

	if tbl.ButtonIdx != 6 {
		t.Errorf("expected the button to skip the sitting-out and broke seats and land on 6, got %d", tbl.ButtonIdx)
	}
}

func TestValidateActionFoldWithNothingToCallBecomesCheck(t *testing.T) {
	tbl, _ := mkTable(9)
	seats := mkSeats(1000, 1000)
	hand := NewGameHand(8, &seats)

	got, errMsg := tbl.validateAction(hand, seats[0], 0, PlayerAction{Kind: Fold})
	if errMsg != "" {
		t.Fatalf("unexpected error: %s", errMsg)
	}
	if got.Kind != Check {
		t.Errorf("expected a no-op fold to become a Check, got %v", got.Kind)
	}
}

func TestValidateActionRejectsACheckFacingABet(t *testing.T) {
	tbl, _ := mkTable(9)
	seats := mkSeats(1000, 1000)
	hand := NewGameHand(8, &seats)
	hand.CurrentBet = 20

	_, errMsg := tbl.validateAction(hand, seats[0], 0, PlayerAction{Kind: Check})
	if errMsg == "" {
		t.Errorf("expected an error checking while facing a bet")
	}
}

func TestValidateActionRejectsACallWithNothingToCall(t *testing.T) {
	tbl, _ := mkTable(9)
	seats := mkSeats(1000, 1000)
	hand := NewGameHand(8, &seats)

	_, errMsg := tbl.validateAction(hand, seats[0], 0, PlayerAction{Kind: Call})
	if errMsg == "" {
		t.Errorf("expected an error calling with nothing to call")
	}
}

// TestValidateActionEnforcesMinRaise mirrors the "preflop min-raise
// violation" concrete scenario: blinds 4/8, a bet raising only to 13 is
// rejected since the minimum legal raise is to 16.
func TestValidateActionEnforcesMinRaise(t *testing.T) {
	tbl, _ := mkTable(9)
	seats := mkSeats(1000, 1000)
	hand := NewGameHand(8, &seats)
	hand.CurrentBet = 8
	hand.MinRaise = 8

	_, errMsg := tbl.validateAction(hand, seats[0], 0, PlayerAction{Kind: Bet, Amount: 13})
	if errMsg == "" {
		t.Fatalf("expected a sub-minimum raise to 13 to be rejected")
	}

	got, errMsg := tbl.validateAction(hand, seats[0], 0, PlayerAction{Kind: Bet, Amount: 16})
	if errMsg != "" {
		t.Fatalf("expected a raise to 16 to be legal, got error: %s", errMsg)
	}
	if got.Amount != 16 {
		t.Errorf("expected the validated bet amount to be 16, got %d", got.Amount)
	}
}

// TestMinRaiseLockoutAfterAnAllInSubMinimumRaise mirrors the "all-in
// sub-minimum lockout" scenario: once a short all-in fails to meet
// min_raise, the seat that opened the last full raise cannot re-raise.
func TestMinRaiseLockoutAfterAnAllInSubMinimumRaise(t *testing.T) {
	tbl, _ := mkTable(9)
	seats := mkSeats(1000, 70, 1000)
	hand := NewGameHand(8, &seats)
	hand.CurrentBet = 8 // simulate blinds already posted

	// Button (seat 0) bets to 50: min_raise becomes 42.
	betAction, errMsg := tbl.validateAction(hand, seats[0], 0, PlayerAction{Kind: Bet, Amount: 50})
	if errMsg != "" {
		t.Fatalf("unexpected error opening the bet: %s", errMsg)
	}
	tbl.applyAction(hand, seats[0], 0, betAction)
	seats[0].LastAction = &betAction

	// SB (seat 1) shoves all-in for 70: only a +20 raise, below min_raise,
	// but legal because it is an all-in.
	allInAction, errMsg := tbl.validateAction(hand, seats[1], 1, PlayerAction{Kind: Bet, Amount: 70})
	if errMsg != "" {
		t.Fatalf("unexpected error on the all-in shove: %s", errMsg)
	}
	tbl.applyAction(hand, seats[1], 1, allInAction)
	seats[1].LastAction = &allInAction

	if hand.MinRaise != 42 {
		t.Fatalf("expected min_raise to stay at 42 after a sub-minimum all-in raise, got %d", hand.MinRaise)
	}

	// Button tries to re-raise to 150: rejected, since its own last raise
	// was not matched by a legal full raise.
	_, errMsg = tbl.validateAction(hand, seats[0], 0, PlayerAction{Kind: Bet, Amount: 150})
	if errMsg == "" {
		t.Errorf("expected the button's re-raise to be rejected by the min-raise lockout")
	}
}

func TestApplyActionCallMatchesTheCurrentBet(t *testing.T) {
	tbl, _ := mkTable(9)
	seats := mkSeats(1000, 1000)
	hand := NewGameHand(8, &seats)
	hand.CurrentBet = 20

	tbl.applyAction(hand, seats[0], 0, PlayerAction{Kind: Call})

	if seats[0].Money != 980 {
		t.Errorf("expected calling 20 to leave 980, got %d", seats[0].Money)
	}
	if hand.ContributionFor(0) != 20 {
		t.Errorf("expected the call to register a street contribution of 20, got %d", hand.ContributionFor(0))
	}
}

func TestApplyActionCallCapsAtRemainingMoney(t *testing.T) {
	tbl, _ := mkTable(9)
	seats := mkSeats(15, 1000)
	hand := NewGameHand(8, &seats)
	hand.CurrentBet = 20

	tbl.applyAction(hand, seats[0], 0, PlayerAction{Kind: Call})

	if seats[0].Money != 0 {
		t.Errorf("expected an under-funded call to go all-in for the full stack, got %d left", seats[0].Money)
	}
	if hand.ContributionFor(0) != 15 {
		t.Errorf("expected the contribution to be capped at 15, got %d", hand.ContributionFor(0))
	}
}

func TestApplyActionFoldDeactivatesTheSeat(t *testing.T) {
	tbl, _ := mkTable(9)
	seats := mkSeats(1000, 1000)
	hand := NewGameHand(8, &seats)

	tbl.applyAction(hand, seats[0], 0, PlayerAction{Kind: Fold})

	if seats[0].IsActive {
		t.Errorf("expected a fold to deactivate the seat")
	}
}

func TestHandleLeaveRemovesConfigAndNotifiesTheHub(t *testing.T) {
	tbl, notifier := mkTable(9)
	id := uuid.New()
	cfg := NewPlayerConfig(id, nil)
	cfg.Name = "departing"
	if _, err := tbl.addHuman(cfg, ""); err != nil {
		t.Fatalf("addHuman: %v", err)
	}

	tbl.handleLeave(MetaAction{Kind: MetaLeave, PlayerID: id})

	if _, stillThere := tbl.Configs[id]; stillThere {
		t.Errorf("expected the config to be removed on Leave")
	}
	if len(notifier.returns) != 1 || notifier.returns[0].Kind != Left {
		t.Fatalf("expected exactly one Returned(Left) notification, got %v", notifier.returns)
	}

	// Double leave is a no-op.
	tbl.handleLeave(MetaAction{Kind: MetaLeave, PlayerID: id})
	if len(notifier.returns) != 1 {
		t.Errorf("expected a second Leave to be a no-op, got %d notifications", len(notifier.returns))
	}
}

func TestEvictConfiglessSeatsDropsOrphanedPlayers(t *testing.T) {
	tbl, _ := mkTable(9)
	id := uuid.New()
	tbl.Seats[3] = NewPlayer(id, 3, true, 1000)
	// deliberately no matching entry in tbl.Configs

	tbl.evictConfiglessSeats()

	if tbl.Seats[3] != nil {
		t.Errorf("expected the configless seat to be evicted")
	}
}

func TestEvictStaleHeartbeatsReturnsSilentIdentities(t *testing.T) {
	tbl, notifier := mkTable(9)
	id := uuid.New()
	cfg := NewPlayerConfig(id, nil)
	cfg.HeartBeat = cfg.HeartBeat.Add(-2 * PlayerTimeout)
	tbl.Configs[id] = cfg

	tbl.evictStaleHeartbeats()

	if _, ok := tbl.Configs[id]; ok {
		t.Errorf("expected the stale config to be evicted")
	}
	if len(notifier.returns) != 1 || notifier.returns[0].Kind != HeartBeatFailed {
		t.Fatalf("expected a Returned(HeartBeatFailed) notification, got %v", notifier.returns)
	}
}

func TestHandleAdminRejectsNonAdminAndNonPrivateTables(t *testing.T) {
	tbl, _ := mkTable(9)
	adminID := uuid.New()
	tbl.AdminID = adminID
	tbl.Private = true
	var adminFrames, otherFrames []any
	cfg := NewPlayerConfig(adminID, recordingReply(&adminFrames))
	tbl.Configs[adminID] = cfg

	other := uuid.New()
	tbl.Configs[other] = NewPlayerConfig(other, recordingReply(&otherFrames))

	tbl.handleAdmin(MetaAction{Kind: MetaAdmin, PlayerID: other, AdminVerb: AdminShowPassword})
	// not admin: the requester gets a not_admin error frame
	if len(otherFrames) != 1 {
		t.Fatalf("expected one reply to the non-admin, got %d", len(otherFrames))
	}
	if e, ok := otherFrames[0].(protocol.ErrorFrame); !ok || e.Error != protocol.ErrNotAdmin {
		t.Errorf("expected a not_admin ErrorFrame, got %+v", otherFrames[0])
	}

	tbl.Private = false
	tbl.handleAdmin(MetaAction{Kind: MetaAdmin, PlayerID: adminID, AdminVerb: AdminShowPassword})
	// not private: the admin gets a not_private error frame
	if len(adminFrames) != 1 {
		t.Fatalf("expected one reply to the admin, got %d", len(adminFrames))
	}
	if e, ok := adminFrames[0].(protocol.ErrorFrame); !ok || e.Error != protocol.ErrNotPrivate {
		t.Errorf("expected a not_private ErrorFrame, got %+v", adminFrames[0])
	}
}

func TestHandleAdminAddAndRemoveBot(t *testing.T) {
	tbl, _ := mkTable(9)
	adminID := uuid.New()
	tbl.AdminID = adminID
	tbl.Private = true
	tbl.Configs[adminID] = NewPlayerConfig(adminID, nil)

	tbl.handleAdmin(MetaAction{Kind: MetaAdmin, PlayerID: adminID, AdminVerb: AdminAddBot})

	bots := 0
	for _, p := range tbl.Seats {
		if p != nil && !p.HumanControlled {
			bots++
		}
	}
	if bots != 1 {
		t.Fatalf("expected 1 bot seated after AdminAddBot, got %d", bots)
	}

	tbl.handleAdmin(MetaAction{Kind: MetaAdmin, PlayerID: adminID, AdminVerb: AdminRemoveBot})
	for _, p := range tbl.Seats {
		if p != nil && !p.HumanControlled {
			t.Errorf("expected AdminRemoveBot to clear the bot seat")
		}
	}
}

func TestHandleAdminRestartResetsStacks(t *testing.T) {
	tbl, _ := mkTable(9)
	adminID := uuid.New()
	tbl.AdminID = adminID
	tbl.Private = true
	tbl.Configs[adminID] = NewPlayerConfig(adminID, nil)
	tbl.Seats[0] = NewPlayer(adminID, 0, true, 1000)
	tbl.Seats[0].Money = 3 // busted

	tbl.handleAdmin(MetaAction{Kind: MetaAdmin, PlayerID: adminID, AdminVerb: AdminRestart})

	if tbl.Seats[0].Money != tbl.BuyIn {
		t.Errorf("expected AdminRestart to reset money to the buy-in %d, got %d", tbl.BuyIn, tbl.Seats[0].Money)
	}
}

func TestMin32(t *testing.T) {
	if min32(3, 8) != 3 {
		t.Errorf("min32(3,8) should be 3")
	}
	if min32(8, 3) != 3 {
		t.Errorf("min32(8,3) should be 3")
	}
}
