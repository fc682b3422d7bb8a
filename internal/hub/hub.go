// Package hub implements the single lobby actor: it tracks connected-but-
// unseated identities, owns the table registry, and routes every
// session-originated event (connect, create, join, action, meta) to the
// right place. It is the only writer of its own state, so its maps need no
// internal locking — see Hub.Run.
package hub

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ajstarna/holdem/internal/cards"
	"github.com/ajstarna/holdem/internal/protocol"
	"github.com/ajstarna/holdem/internal/table"
	"github.com/decred/slog"
	"github.com/google/uuid"
)

const tableNameLen = 4
const tableNameChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// lobbyHeartbeatInterval is how often the lobby drops silent, unseated
// connections.
const lobbyHeartbeatInterval = 10 * time.Second

// DeckFactory builds a fresh shuffled deck for a new table.
type DeckFactory func() cards.Deck

// Hub is the lobby actor. Construct with New, then run its loop with Run in
// its own goroutine; every other method is safe to call concurrently and
// merely enqueues work for that loop.
type Hub struct {
	log      slog.Logger
	newDeck  DeckFactory
	tableLog func(name string) slog.Logger

	lobby    map[uuid.UUID]*table.PlayerConfig
	seated   map[uuid.UUID]string
	tables   map[string]*table.Table
	private  map[string]bool

	mu     sync.Mutex
	queue  []any
	wake   chan struct{}
	stop   chan struct{}
}

// New constructs a lobby actor. tableLog builds a subsystem logger for a
// freshly created table (e.g. "TBL-ABCD").
func New(log slog.Logger, newDeck DeckFactory, tableLog func(name string) slog.Logger) *Hub {
	return &Hub{
		log:      log,
		newDeck:  newDeck,
		tableLog: tableLog,
		lobby:    make(map[uuid.UUID]*table.PlayerConfig),
		seated:   make(map[uuid.UUID]string),
		tables:   make(map[string]*table.Table),
		private:  make(map[string]bool),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

func (h *Hub) enqueue(ev any) {
	h.mu.Lock()
	h.queue = append(h.queue, ev)
	h.mu.Unlock()
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Hub) drain() []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	taken := h.queue
	h.queue = nil
	return taken
}

// Stop ends the Run loop.
func (h *Hub) Stop() {
	close(h.stop)
}

// Run is the lobby's single-threaded event loop (§5). Call it in its own
// goroutine; it returns when Stop is called.
func (h *Hub) Run() {
	ticker := time.NewTicker(lobbyHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.evictStaleLobbyConns()
		case <-h.wake:
			for _, ev := range h.drain() {
				h.handle(ev)
			}
		}
	}
}

func (h *Hub) evictStaleLobbyConns() {
	for id, cfg := range h.lobby {
		if !cfg.HasActiveHeartBeat(table.PlayerTimeout) {
			delete(h.lobby, id)
		}
	}
}

func (h *Hub) handle(ev any) {
	switch e := ev.(type) {
	case connectEvent:
		h.handleConnect(e)
	case playerNameEvent:
		h.handlePlayerName(e)
	case listTablesEvent:
		h.handleListTables(e)
	case createEvent:
		h.handleCreate(e)
	case joinEvent:
		h.handleJoin(e)
	case returnedEvent:
		h.handleReturned(e)
	case gameOverEvent:
		h.handleGameOver(e)
	case playerActionEvent:
		h.handlePlayerAction(e)
	case metaActionEvent:
		h.handleMetaAction(e)
	default:
		h.log.Warnf("hub: unrecognized internal event %T", ev)
	}
}

// --- inbound event types and their public enqueue methods ---

type connectEvent struct {
	id    uuid.UUID
	reply protocol.ReplyFunc
}

// Connect registers a session with id, whether brand new, reconnecting to
// the lobby, or reconnecting to a seat it already holds (§4.5).
func (h *Hub) Connect(id uuid.UUID, reply protocol.ReplyFunc) {
	h.enqueue(connectEvent{id: id, reply: reply})
}

func (h *Hub) handleConnect(e connectEvent) {
	switch {
	case h.lobby[e.id] != nil:
		cfg := h.lobby[e.id]
		cfg.Reply = e.reply
		cfg.Send(protocol.NewPlayerNameFrame(cfg.Name))
	case h.seated[e.id] != "":
		tableName := h.seated[e.id]
		t := h.tables[tableName]
		if t != nil {
			t.PushMeta(table.MetaAction{Kind: table.MetaUpdateAddress, PlayerID: e.id, Reply: e.reply})
			t.PushMeta(table.MetaAction{Kind: table.MetaSendPlayerName, PlayerID: e.id, Reply: e.reply})
		}
	default:
		h.lobby[e.id] = table.NewPlayerConfig(e.id, e.reply)
	}
	if e.reply != nil {
		e.reply(protocol.NewConnectedFrame(e.id))
	}
}

type playerNameEvent struct {
	id   uuid.UUID
	name string
}

// PlayerName sets or updates id's display name, in the lobby or at a table.
func (h *Hub) PlayerName(id uuid.UUID, name string) {
	h.enqueue(playerNameEvent{id: id, name: name})
}

func (h *Hub) handlePlayerName(e playerNameEvent) {
	if cfg, ok := h.lobby[e.id]; ok {
		cfg.Name = e.name
		cfg.Touch()
		cfg.Send(protocol.NewPlayerNameFrame(cfg.Name))
		return
	}
	if tableName, ok := h.seated[e.id]; ok {
		if t := h.tables[tableName]; t != nil {
			t.PushMeta(table.MetaAction{Kind: table.MetaSetPlayerName, PlayerID: e.id, Name: e.name})
		}
	}
}

type listTablesEvent struct {
	reply protocol.ReplyFunc
}

// ListTables answers with the current public table names and asks each to
// unicast a detail frame back to the requester.
func (h *Hub) ListTables(reply protocol.ReplyFunc) {
	h.enqueue(listTablesEvent{reply: reply})
}

func (h *Hub) handleListTables(e listTablesEvent) {
	names := make([]string, 0, len(h.tables))
	for name, t := range h.tables {
		if h.private[name] {
			continue
		}
		names = append(names, name)
		t.PushMeta(table.MetaAction{Kind: table.MetaTableInfo, Reply: e.reply})
	}
	if e.reply != nil {
		e.reply(protocol.NewTableListFrame(names))
	}
}

type createEvent struct {
	id     uuid.UUID
	fields protocol.CreateFields
	reply  protocol.ReplyFunc
}

// Create builds and starts a new table on behalf of id, who must be in the
// lobby with a name set.
func (h *Hub) Create(id uuid.UUID, fields protocol.CreateFields, reply protocol.ReplyFunc) {
	h.enqueue(createEvent{id: id, fields: fields, reply: reply})
}

func (h *Hub) handleCreate(e createEvent) {
	cfg, ok := h.lobby[e.id]
	if !ok {
		if tableName, atTable := h.seated[e.id]; atTable {
			h.sendCreateError(e.reply, &table.CreateTableError{Kind: table.AlreadyAtTable, Detail: tableName})
		} else {
			h.sendCreateError(e.reply, &table.CreateTableError{Kind: table.PlayerDoesNotExist})
		}
		return
	}
	delete(h.lobby, e.id)
	cfg.Touch()

	if cfg.Name == "" {
		h.lobby[e.id] = cfg
		h.sendCreateError(e.reply, &table.CreateTableError{Kind: table.NameNotSet})
		return
	}

	fields := e.fields
	if fields.NumBots >= fields.MaxPlayers {
		h.lobby[e.id] = cfg
		h.sendCreateError(e.reply, &table.CreateTableError{Kind: table.TooManyBots})
		return
	}
	if fields.BigBlind > fields.BuyIn || fields.SmallBlind > fields.BuyIn {
		h.lobby[e.id] = cfg
		h.sendCreateError(e.reply, &table.CreateTableError{Kind: table.TooLargeBlinds})
		return
	}

	name := h.genTableName()
	password := ""
	if fields.Password != nil {
		password = *fields.Password
	}

	newTable := table.NewTable(name, fields.SmallBlind, fields.BigBlind, fields.BuyIn, fields.MaxPlayers, password, h.newDeck(), h, h.tableLog(name))
	for i := uint8(0); i < fields.NumBots; i++ {
		if _, err := newTable.AddBot(fmt.Sprintf("Bot %d", i)); err != nil {
			h.log.Warnf("hub: failed adding bot %d to fresh table %s: %v", i, name, err)
		}
	}
	if password != "" {
		h.private[name] = true
	}
	newTable.AdminID = e.id

	h.tables[name] = newTable
	h.seated[e.id] = name
	newTable.PushMeta(table.MetaAction{Kind: table.MetaJoin, PlayerID: e.id, Config: cfg, Password: password})

	go newTable.Run()

	if e.reply != nil {
		e.reply(name)
	}
}

func (h *Hub) sendCreateError(reply protocol.ReplyFunc, err *table.CreateTableError) {
	if reply != nil {
		reply(protocol.NewErrorFrame(protocol.ErrUnableToJoin, err.Error()))
	}
}

type joinEvent struct {
	id        uuid.UUID
	tableName string
	password  string
}

// Join forwards id into the named table, leaving the lobby.
func (h *Hub) Join(id uuid.UUID, tableName, password string) {
	h.enqueue(joinEvent{id: id, tableName: tableName, password: password})
}

func (h *Hub) handleJoin(e joinEvent) {
	cfg, ok := h.lobby[e.id]
	if !ok {
		// already mid-transition to/from a table; nothing to do
		return
	}
	cfg.Touch()

	if cfg.Name == "" {
		cfg.Send(protocol.NewErrorFrame(protocol.ErrUnableToJoin, "you cannot join a game until you set your name"))
		h.lobby[e.id] = cfg
		return
	}

	t, ok := h.tables[e.tableName]
	if !ok {
		cfg.Send(protocol.NewErrorFrame(protocol.ErrUnableToJoin, fmt.Sprintf("no table named %s exists", e.tableName)))
		h.lobby[e.id] = cfg
		return
	}

	delete(h.lobby, e.id)
	h.seated[e.id] = e.tableName
	t.PushMeta(table.MetaAction{Kind: table.MetaJoin, PlayerID: e.id, Config: cfg, Password: e.password})
}

type returnedEvent struct {
	tableName string
	config    *table.PlayerConfig
	reason    table.ReturnedReason
}

// Returned implements table.HubNotifier: a table is handing a client back.
func (h *Hub) Returned(tableName string, config *table.PlayerConfig, reason table.ReturnedReason) {
	h.enqueue(returnedEvent{tableName: tableName, config: config, reason: reason})
}

func (h *Hub) handleReturned(e returnedEvent) {
	if h.seated[e.config.ID] == e.tableName {
		delete(h.seated, e.config.ID)
	}

	switch e.reason.Kind {
	case table.Left:
		e.config.Send(protocol.NewLeftGameFrame())
	case table.HeartBeatFailed:
		e.config.Send(protocol.NewErrorFrame(protocol.ErrDisconnectedFromSrv, "timed out due to inactivity"))
	case table.FailureToJoin:
		reason := "unable to join table"
		if e.reason.Inner != nil {
			reason = e.reason.Inner.Error()
		}
		e.config.Send(protocol.NewErrorFrame(protocol.ErrUnableToJoin, reason))
	}

	h.lobby[e.config.ID] = e.config
}

type gameOverEvent struct {
	tableName string
}

// GameOver implements table.HubNotifier: drop every Hub-side record of the
// table once its goroutine exits.
func (h *Hub) GameOver(tableName string) {
	h.enqueue(gameOverEvent{tableName: tableName})
}

func (h *Hub) handleGameOver(e gameOverEvent) {
	delete(h.tables, e.tableName)
	delete(h.private, e.tableName)
	for id, name := range h.seated {
		if name == e.tableName {
			delete(h.seated, id)
		}
	}
}

type playerActionEvent struct {
	id     uuid.UUID
	action table.PlayerAction
}

// PlayerAction relays a session's submitted action to its table's actions
// map.
func (h *Hub) PlayerAction(id uuid.UUID, action table.PlayerAction) {
	h.enqueue(playerActionEvent{id: id, action: action})
}

func (h *Hub) handlePlayerAction(e playerActionEvent) {
	tableName, ok := h.seated[e.id]
	if !ok {
		return
	}
	if t := h.tables[tableName]; t != nil {
		t.PushAction(e.id, e.action)
	}
}

type metaActionEvent struct {
	id   uuid.UUID
	meta table.MetaAction
}

// MetaAction relays a session's structural request (leave/sit-out/chat/
// admin/...) to its table's meta queue.
func (h *Hub) MetaAction(id uuid.UUID, meta table.MetaAction) {
	h.enqueue(metaActionEvent{id: id, meta: meta})
}

func (h *Hub) handleMetaAction(e metaActionEvent) {
	tableName, ok := h.seated[e.id]
	if !ok {
		return
	}
	if t := h.tables[tableName]; t != nil {
		t.PushMeta(e.meta)
	}
}

func (h *Hub) genTableName() string {
	for {
		b := make([]byte, tableNameLen)
		for i := range b {
			b[i] = tableNameChars[rand.Intn(len(tableNameChars))]
		}
		name := string(b)
		if _, taken := h.tables[name]; !taken {
			return name
		}
	}
}
