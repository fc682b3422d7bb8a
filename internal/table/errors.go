package table

import "fmt"

// JoinTableErrorKind enumerates the reasons a Join meta-action can fail.
type JoinTableErrorKind int

const (
	GameIsFull JoinTableErrorKind = iota
	MissingPassword
	InvalidPassword
)

// JoinTableError reports why a seat request was refused.
type JoinTableError struct {
	Kind JoinTableErrorKind
}

func (e *JoinTableError) Error() string {
	switch e.Kind {
	case GameIsFull:
		return "table is full"
	case MissingPassword:
		return "this table requires a password"
	case InvalidPassword:
		return "incorrect password"
	default:
		return "unable to join table"
	}
}

// CreateTableErrorKind enumerates the reasons a Create request can fail.
type CreateTableErrorKind int

const (
	NameNotSet CreateTableErrorKind = iota
	UnableToParseJSON
	AlreadyAtTable
	PlayerDoesNotExist
	TooManyBots
	TooLargeBlinds
)

// CreateTableError reports why a Create request was refused.
type CreateTableError struct {
	Kind   CreateTableErrorKind
	Detail string // parse error text, or the table name for AlreadyAtTable
}

func (e *CreateTableError) Error() string {
	switch e.Kind {
	case NameNotSet:
		return "set a display name before creating a table"
	case UnableToParseJSON:
		return fmt.Sprintf("unable to parse create request: %s", e.Detail)
	case AlreadyAtTable:
		return fmt.Sprintf("already at table %s", e.Detail)
	case PlayerDoesNotExist:
		return "unknown player"
	case TooManyBots:
		return "too many bots requested for this table size"
	case TooLargeBlinds:
		return "blinds may not exceed the buy-in"
	default:
		return "unable to create table"
	}
}

// ReturnedReasonKind enumerates why the Table is handing a client back to
// the Hub's lobby.
type ReturnedReasonKind int

const (
	Left ReturnedReasonKind = iota
	HeartBeatFailed
	FailureToJoin
)

// ReturnedReason is attached to a Returned notification from Table to Hub.
type ReturnedReason struct {
	Kind  ReturnedReasonKind
	Inner *JoinTableError // populated when Kind == FailureToJoin
}
