// Package transport adapts one websocket connection to the Hub's event
// API: it decodes each inbound text frame with protocol.ParseClientFrame,
// dispatches the resulting Command, and carries outbound JSON frames back
// over the same socket.
package transport

import (
	"strconv"
	"time"

	"github.com/ajstarna/holdem/internal/hub"
	"github.com/ajstarna/holdem/internal/protocol"
	"github.com/ajstarna/holdem/internal/table"
	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 64
)

// Session owns one client's websocket connection for its lifetime: a
// readPump decoding client frames into Hub calls, and a writePump draining
// the Hub's replies back onto the wire.
type Session struct {
	ID   uuid.UUID
	conn *websocket.Conn
	hub  *hub.Hub
	log  slog.Logger

	send      chan any
	closeOnce closeGuard
}

type closeGuard struct {
	done bool
}

// NewSession wraps conn with a fresh identity and registers it with hub.
func NewSession(conn *websocket.Conn, h *hub.Hub, log slog.Logger) *Session {
	return &Session{
		ID:   uuid.New(),
		conn: conn,
		hub:  h,
		log:  log,
		send: make(chan any, sendBufferSize),
	}
}

// Start launches the write pump, announces the connection to the Hub, and
// then runs the read pump on the calling goroutine, so it returns only once
// the read pump stops.
func (s *Session) Start() {
	go s.writePump()
	s.hub.Connect(s.ID, s.reply)
	s.readPump()
}

// reply is this session's protocol.ReplyFunc: the Hub and Tables call it to
// deliver one outbound frame, never touching the socket directly.
func (s *Session) reply(frame any) {
	select {
	case s.send <- frame:
	default:
		s.log.Warnf("session %s: send buffer full, dropping frame", s.ID)
	}
}

func (s *Session) readPump() {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Debugf("session %s: read error: %v", s.ID, err)
			}
			return
		}
		s.dispatch(protocol.ParseClientFrame(string(raw)))
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(frame); err != nil {
				s.log.Debugf("session %s: write error: %v", s.ID, err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) close() {
	if s.closeOnce.done {
		return
	}
	s.closeOnce.done = true
	close(s.send)
}

// dispatch turns one parsed client Command into the corresponding Hub call.
func (s *Session) dispatch(cmd protocol.Command) {
	switch cmd.Kind {
	case protocol.CmdList:
		s.hub.ListTables(s.reply)

	case protocol.CmdJoin:
		s.hub.Join(s.ID, cmd.TableName, cmd.Password)

	case protocol.CmdLeave:
		s.hub.MetaAction(s.ID, table.MetaAction{Kind: table.MetaLeave, PlayerID: s.ID})

	case protocol.CmdSitOut:
		s.hub.MetaAction(s.ID, table.MetaAction{Kind: table.MetaSitOut, PlayerID: s.ID})

	case protocol.CmdResume:
		s.hub.MetaAction(s.ID, table.MetaAction{Kind: table.MetaImBack, PlayerID: s.ID})

	case protocol.CmdName:
		s.hub.PlayerName(s.ID, cmd.Name)

	case protocol.CmdCheck:
		s.hub.PlayerAction(s.ID, table.PlayerAction{Kind: table.Check})

	case protocol.CmdFold:
		s.hub.PlayerAction(s.ID, table.PlayerAction{Kind: table.Fold})

	case protocol.CmdCall:
		s.hub.PlayerAction(s.ID, table.PlayerAction{Kind: table.Call})

	case protocol.CmdBet:
		s.hub.PlayerAction(s.ID, table.PlayerAction{Kind: table.Bet, Amount: cmd.Amount})

	case protocol.CmdAdmin:
		s.dispatchAdmin(cmd)

	case protocol.CmdChat:
		s.hub.MetaAction(s.ID, table.MetaAction{Kind: table.MetaChat, PlayerID: s.ID, Text: cmd.Text})

	case protocol.CmdCreate:
		s.hub.Create(s.ID, *cmd.Create, s.reply)

	default:
		s.reply(protocol.NewErrorFrame(protocol.ErrUnknownCommand, "unrecognized command: "+cmd.RawCommand))
	}
}

func (s *Session) dispatchAdmin(cmd protocol.Command) {
	meta := table.MetaAction{Kind: table.MetaAdmin, PlayerID: s.ID}

	switch cmd.AdminVerb {
	case "small_blind":
		meta.AdminVerb = table.AdminSmallBlind
		meta.AdminUint = parseUint32(cmd.AdminArg)
	case "big_blind":
		meta.AdminVerb = table.AdminBigBlind
		meta.AdminUint = parseUint32(cmd.AdminArg)
	case "buy_in":
		meta.AdminVerb = table.AdminBuyIn
		meta.AdminUint = parseUint32(cmd.AdminArg)
	case "set_password":
		meta.AdminVerb = table.AdminSetPassword
		meta.AdminState = cmd.AdminArg
	case "show_password":
		meta.AdminVerb = table.AdminShowPassword
	case "add_bot":
		meta.AdminVerb = table.AdminAddBot
	case "remove_bot":
		meta.AdminVerb = table.AdminRemoveBot
	case "restart":
		meta.AdminVerb = table.AdminRestart
	default:
		s.reply(protocol.NewErrorFrame(protocol.ErrUnknownCommand, "unrecognized admin command: "+cmd.AdminVerb))
		return
	}

	s.hub.MetaAction(s.ID, meta)
}

func parseUint32(s string) uint32 {
	n, _ := strconv.ParseUint(s, 10, 32)
	return uint32(n)
}
