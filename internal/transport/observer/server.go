package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tileworld.ai/internal/observerproto"
	"tileworld.ai/internal/protocol"
	"tileworld.ai/internal/sim/multiworld"
	"tileworld.ai/internal/sim/world"
)

// Server streams chunk generation events to loopback observers. It is a
// world.GenerationSink attached to every world of the manager.
type Server struct {
	mgr *multiworld.Manager
	log *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu   sync.RWMutex
	subs map[string]*subscriber
}

type subscriber struct {
	out     chan []byte
	dropped atomic.Uint64

	mu      sync.Mutex
	worldID string
}

func (s *subscriber) filter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.worldID
}

func (s *subscriber) setFilter(id string) {
	s.mu.Lock()
	s.worldID = id
	s.mu.Unlock()
}

func NewServer(m *multiworld.Manager, logger *log.Logger) *Server {
	s := &Server{
		mgr:  m,
		log:  logger,
		subs: map[string]*subscriber{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only
		},
	}
	m.Observe(s)
	return s
}

// Subscribers reports the number of connected observers.
func (s *Server) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// WriteGeneration fans the entry out without blocking; slow observers lose
// events and are told how many on their next message.
func (s *Server) WriteGeneration(e world.GenerationEntry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if f := sub.filter(); f != "" && f != e.WorldID {
			continue
		}
		dropped := sub.dropped.Swap(0)
		b, err := json.Marshal(genMsg(e, dropped))
		if err != nil {
			return err
		}
		select {
		case sub.out <- b:
		default:
			sub.dropped.Add(dropped + 1)
		}
	}
	return nil
}

func genMsg(e world.GenerationEntry, dropped uint64) observerproto.GenMsg {
	return observerproto.GenMsg{
		Type:            "GEN",
		ProtocolVersion: observerproto.Version,
		WorldID:         e.WorldID,
		CX:              e.CX,
		CY:              e.CY,
		Digest:          e.Digest,
		GenUS:           e.GenUS,
		Biomes:          e.Biomes[:],
		Trees:           e.Trees,
		Rocks:           e.Rocks,
		Dropped:         dropped,
	}
}

func (s *Server) Bootstrap() observerproto.BootstrapResponse {
	stats := s.mgr.Stats()
	resp := observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		DefaultWorldID:  s.mgr.DefaultWorldID(),
		Palettes:        map[string]protocol.PaletteRef{},
	}
	for _, ref := range s.mgr.Manifest() {
		st := stats[ref.WorldID]
		resp.Worlds = append(resp.Worlds, observerproto.WorldState{
			WorldRef:     ref,
			LoadedChunks: st.Chunks,
			LoadedTiles:  st.Tiles,
		})
		if w, ok := s.mgr.World(ref.WorldID); ok {
			resp.Palettes[ref.WorldID] = w.PaletteRef()
		}
	}
	return resp
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.Bootstrap())
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, reason := s.parseSubscribe(msg)
		if reason != "" {
			closeWith(conn, websocket.ClosePolicyViolation, reason)
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		sc := &subscriber{out: make(chan []byte, 1024), worldID: sub.WorldID}
		s.mu.Lock()
		s.subs[sid] = sc
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.subs, sid)
			s.mu.Unlock()
		}()
		s.logf("observer %s subscribed world=%q", sid, sub.WorldID)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-sc.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			next, reason := s.parseSubscribe(msg)
			if reason != "" {
				continue
			}
			sc.setFilter(next.WorldID)
		}

		cancel()
		closeWith(conn, websocket.CloseNormalClosure, "bye")

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) parseSubscribe(msg []byte) (observerproto.SubscribeMsg, string) {
	var sub observerproto.SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return sub, "bad subscribe"
	}
	if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != observerproto.Version {
		return sub, "expected SUBSCRIBE"
	}
	sub.WorldID = strings.TrimSpace(sub.WorldID)
	if sub.WorldID != "" {
		if _, ok := s.mgr.World(sub.WorldID); !ok {
			return sub, "unknown world"
		}
	}
	return sub, ""
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

func IsLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
