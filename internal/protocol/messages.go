// Package protocol defines the wire schema: the closed set of JSON frames
// the server emits, the Create payload the client sends, and the
// slash-command grammar used for everything else client to server.
package protocol

import "github.com/google/uuid"

// ReplyFunc is a session's outbound callback: "the reply address" in the
// distilled spec's vocabulary. Hub and Table code never reach into a
// transport session directly, only through this function value.
type ReplyFunc func(frame any)

// MsgType values for the Server -> client JSON discriminator field.
const (
	MsgConnected     = "connected"
	MsgPlayerName    = "player_name"
	MsgGameState     = "game_state"
	MsgNewHand       = "new_hand"
	MsgChat          = "chat"
	MsgPlayerLeft    = "player_left"
	MsgTableInfo     = "table_info"
	MsgTableList     = "table_list"
	MsgAdminSuccess  = "admin_success"
	MsgLeftGame      = "left_game"
	MsgError         = "error"
)

// Error discriminators carried in an ErrorFrame.
const (
	ErrUnableToJoin          = "unable_to_join"
	ErrInvalidAction         = "invalid_action"
	ErrDisconnectedFromSrv   = "disconnected_from_server"
	ErrNotAdmin              = "not_admin"
	ErrNotPrivate            = "not_private"
	ErrUnableToAddBot        = "unable_to_add_bot"
	ErrUnableToRemoveBot     = "unable_to_remove_bot"
	ErrUnknownCommand        = "unknown_command"
)

// ConnectedFrame acknowledges a transport Connect with the session's id.
type ConnectedFrame struct {
	MsgType string    `json:"msg_type"`
	ID      uuid.UUID `json:"id"`
}

func NewConnectedFrame(id uuid.UUID) ConnectedFrame {
	return ConnectedFrame{MsgType: MsgConnected, ID: id}
}

// PlayerNameFrame echoes a client's current display name.
type PlayerNameFrame struct {
	MsgType string `json:"msg_type"`
	Name    string `json:"name"`
}

func NewPlayerNameFrame(name string) PlayerNameFrame {
	return PlayerNameFrame{MsgType: MsgPlayerName, Name: name}
}

// NewHandFrame announces the start of a hand.
type NewHandFrame struct {
	MsgType   string `json:"msg_type"`
	HandNum   uint64 `json:"hand_num"`
	ButtonIdx int    `json:"button_idx"`
}

func NewNewHandFrame(handNum uint64, buttonIdx int) NewHandFrame {
	return NewHandFrame{MsgType: MsgNewHand, HandNum: handNum, ButtonIdx: buttonIdx}
}

// ChatFrame fans out a message from another client at the same table.
type ChatFrame struct {
	MsgType string `json:"msg_type"`
	From    string `json:"from"`
	Text    string `json:"text"`
}

func NewChatFrame(from, text string) ChatFrame {
	return ChatFrame{MsgType: MsgChat, From: from, Text: text}
}

// PlayerLeftFrame notifies remaining seats that someone left the table.
type PlayerLeftFrame struct {
	MsgType string `json:"msg_type"`
	Name    string `json:"name"`
}

func NewPlayerLeftFrame(name string) PlayerLeftFrame {
	return PlayerLeftFrame{MsgType: MsgPlayerLeft, Name: name}
}

// TableListFrame answers /list with the current non-private table names.
type TableListFrame struct {
	MsgType string   `json:"msg_type"`
	Tables  []string `json:"tables"`
}

func NewTableListFrame(tables []string) TableListFrame {
	return TableListFrame{MsgType: MsgTableList, Tables: tables}
}

// TableInfoFrame is the lobby-info summary a table sends for /list.
type TableInfoFrame struct {
	MsgType     string `json:"msg_type"`
	Name        string `json:"name"`
	SmallBlind  uint32 `json:"small_blind"`
	BigBlind    uint32 `json:"big_blind"`
	BuyIn       uint32 `json:"buy_in"`
	MaxPlayers  uint8  `json:"max_players"`
	NumSeated   int    `json:"num_seated"`
	Private     bool   `json:"private"`
}

// AdminSuccessFrame confirms an admin command was applied.
type AdminSuccessFrame struct {
	MsgType string `json:"msg_type"`
	Command string `json:"command"`
}

func NewAdminSuccessFrame(command string) AdminSuccessFrame {
	return AdminSuccessFrame{MsgType: MsgAdminSuccess, Command: command}
}

// LeftGameFrame confirms a successful Leave.
type LeftGameFrame struct {
	MsgType string `json:"msg_type"`
}

func NewLeftGameFrame() LeftGameFrame {
	return LeftGameFrame{MsgType: MsgLeftGame}
}

// ErrorFrame is the one shape every in-band rejection takes.
type ErrorFrame struct {
	MsgType string `json:"msg_type"`
	Error   string `json:"error"`
	Reason  string `json:"reason"`
}

func NewErrorFrame(kind, reason string) ErrorFrame {
	return ErrorFrame{MsgType: MsgError, Error: kind, Reason: reason}
}

// PlayerView is one seat's slice of a GameStateFrame.
type PlayerView struct {
	Index         int     `json:"index"`
	PlayerName    string  `json:"player_name"`
	Money         uint32  `json:"money"`
	IsActive      bool    `json:"is_active"`
	IsSittingOut  bool    `json:"is_sitting_out,omitempty"`
	IsAllIn       bool    `json:"is_all_in,omitempty"`
	LastAction    string  `json:"last_action,omitempty"`
	HoleCards     string  `json:"hole_cards,omitempty"`
	PreflopCont   uint32  `json:"preflop_cont,omitempty"`
	FlopCont      uint32  `json:"flop_cont,omitempty"`
	TurnCont      uint32  `json:"turn_cont,omitempty"`
	RiverCont     uint32  `json:"river_cont,omitempty"`
}

// SettlementView is one seat's payout at showdown or on a fold-through.
type SettlementView struct {
	Index      int    `json:"index"`
	PlayerName string `json:"player_name"`
	IsShowdown bool   `json:"is_showdown"`
	PotIndex   int    `json:"pot_index"`
	Winner     bool   `json:"winner"`
	Payout     uint32 `json:"payout"`
	HoleCards  string `json:"hole_cards,omitempty"`
	HandRank   string `json:"hand_rank,omitempty"`
}

// GameStateFrame is the main periodic broadcast: a full per-player snapshot
// of one table, as seen by one particular recipient (your_index, hole_cards
// are recipient-relative).
type GameStateFrame struct {
	MsgType        string            `json:"msg_type"`
	Name           string            `json:"name"`
	MaxPlayers     uint8             `json:"max_players"`
	SmallBlind     uint32            `json:"small_blind"`
	BigBlind       uint32            `json:"big_blind"`
	BuyIn          uint32            `json:"buy_in"`
	Password       string            `json:"password,omitempty"`
	ButtonIdx      int               `json:"button_idx"`
	HandNum        uint64            `json:"hand_num"`
	GameSuspended  bool              `json:"game_suspended"`
	HandOver       bool              `json:"hand_over"`
	AllInSituation bool              `json:"all_in_situation"`
	Players        [9]*PlayerView    `json:"players"`
	Street         string            `json:"street,omitempty"`
	CurrentBet     *uint32           `json:"current_bet,omitempty"`
	MinRaise       *uint32           `json:"min_raise,omitempty"`
	Flop           []string          `json:"flop,omitempty"`
	Turn           string            `json:"turn,omitempty"`
	River          string            `json:"river,omitempty"`
	Pots           []uint32          `json:"pots,omitempty"`
	IndexToAct     *int              `json:"index_to_act,omitempty"`
	YourIndex      int               `json:"your_index"`
	HoleCards      string            `json:"hole_cards,omitempty"`
	Settlements    []SettlementView  `json:"settlements,omitempty"`
}

// CreateFields is the JSON payload of the client -> server Create message.
type CreateFields struct {
	MaxPlayers uint8   `json:"max_players"`
	SmallBlind uint32  `json:"small_blind"`
	BigBlind   uint32  `json:"big_blind"`
	BuyIn      uint32  `json:"buy_in"`
	NumBots    uint8   `json:"num_bots"`
	Password   *string `json:"password,omitempty"`
}
