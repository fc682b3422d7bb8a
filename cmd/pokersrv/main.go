package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"

	"github.com/ajstarna/holdem/internal/cards"
	"github.com/ajstarna/holdem/internal/hub"
	"github.com/ajstarna/holdem/internal/logging"
	"github.com/ajstarna/holdem/internal/transport"
	"github.com/decred/slog"
	"github.com/gorilla/websocket"
)

func main() {
	var (
		host       string
		port       int
		seed       int64
		debugLevel string
	)
	flag.StringVar(&host, "host", "127.0.0.1", "Host to listen on")
	flag.IntVar(&port, "port", 8080, "Port to listen on")
	flag.Int64Var(&seed, "seed", 0, "Deterministic RNG seed for decks (0 = random seed)")
	flag.StringVar(&debugLevel, "debuglevel", "info", "Logging level: trace, debug, info, warn, error, critical, off")
	flag.Parse()

	backend, err := logging.NewBackend(logging.Config{Writer: os.Stderr, DebugLevel: debugLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logging: %v\n", err)
		os.Exit(1)
	}
	log := backend.Logger("SRVR")

	if seed == 0 {
		seed = rand.Int63()
	}
	seedRng := rand.New(rand.NewSource(seed))

	h := hub.New(backend.Logger("HUB"), func() cards.Deck {
		// Called only from the Hub's own actor goroutine, so deriving a
		// fresh per-table seed off the shared seedRng is race-free; each
		// resulting deck then lives exclusively on its own table's
		// goroutine.
		return cards.NewStandardDeck(rand.New(rand.NewSource(seedRng.Int63())))
	}, func(name string) slog.Logger {
		return backend.Logger("TBL-" + name)
	})

	go h.Run()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("websocket upgrade failed: %v", err)
			return
		}
		sess := transport.NewSession(conn, h, backend.Logger("SESS"))
		sess.Start()
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	log.Infof("listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("server exited: %v", err)
		os.Exit(1)
	}
}
