package table

import "github.com/google/uuid"

// MetaKind enumerates the structural events handled outside the action
// validator (§4.4.3).
type MetaKind int

const (
	MetaJoin MetaKind = iota
	MetaLeave
	MetaSitOut
	MetaImBack
	MetaSetPlayerName
	MetaSendPlayerName
	MetaUpdateAddress
	MetaTableInfo
	MetaChat
	MetaAdmin
)

// AdminVerb enumerates the commands an admin may issue on their own private
// table.
type AdminVerb int

const (
	AdminSmallBlind AdminVerb = iota
	AdminBigBlind
	AdminBuyIn
	AdminSetPassword
	AdminShowPassword
	AdminAddBot
	AdminRemoveBot
	AdminRestart
)

// MetaAction is a tagged union of the structural events a Table's meta queue
// carries. Only the fields relevant to Kind are populated.
type MetaAction struct {
	Kind MetaKind

	PlayerID uuid.UUID
	Config   *PlayerConfig // MetaJoin
	Password string        // MetaJoin
	Name     string        // MetaSetPlayerName
	Reply    ReplyFunc     // MetaUpdateAddress, MetaTableInfo, MetaSendPlayerName
	Text     string        // MetaChat

	AdminVerb  AdminVerb
	AdminUint  uint32 // SmallBlind/BigBlind/BuyIn argument
	AdminState string // SetPassword argument
}
