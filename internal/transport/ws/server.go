package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tileworld.ai/internal/protocol"
	"tileworld.ai/internal/sim/multiworld"
	"tileworld.ai/internal/sim/world"
)

const (
	defaultMaxChunks = 64
	maxMaxChunks     = 1024
)

type Options struct {
	TickRateHz int
	// MaxViewTiles bounds width*height of a single VIEW.
	MaxViewTiles int
}

type Server struct {
	worlds *multiworld.Manager
	opts   Options
	log    *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(m *multiworld.Manager, opts Options, logger *log.Logger) *Server {
	if opts.MaxViewTiles <= 0 {
		opts.MaxViewTiles = 512 * 512
	}
	if opts.TickRateHz <= 0 {
		opts.TickRateHz = 60
	}
	return &Server{
		worlds: m,
		opts:   opts,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// session is owned by the connection's reader goroutine.
type session struct {
	id        string
	world     *world.World
	maxChunks int
	debug     bool
	sent      map[world.ChunkKey]struct{}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(conn)
		if sess == nil {
			return
		}
		s.logf("session %s joined world %s", sess.id, sess.world.ID())

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if err := s.handleMessage(conn, sess, msg); err != nil {
				break
			}
		}
		s.logf("session %s left (%d chunks sent)", sess.id, len(sess.sent))
	}
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.Validate(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, websocket.ClosePolicyViolation, "expected HELLO")
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, "bad HELLO")
		return nil
	}
	if hello.ProtocolVersion != protocol.Version && !slices.Contains(hello.SupportedVersions, protocol.Version) {
		_ = writeJSON(conn, protocol.NewError(protocol.ErrProtoUnsupported, fmt.Sprintf("server speaks %s", protocol.Version), 0))
		closeWith(conn, websocket.ClosePolicyViolation, "bad protocol_version")
		return nil
	}

	w, ok := s.worlds.World(hello.WorldPreference)
	if !ok {
		_ = writeJSON(conn, protocol.NewError(protocol.ErrWorldNotFound, fmt.Sprintf("unknown world %q", hello.WorldPreference), 0))
		closeWith(conn, websocket.ClosePolicyViolation, "unknown world")
		return nil
	}

	maxChunks := hello.Capabilities.MaxChunks
	if maxChunks <= 0 {
		maxChunks = defaultMaxChunks
	}
	if maxChunks > maxMaxChunks {
		maxChunks = maxMaxChunks
	}
	sess := &session{
		id:        fmt.Sprintf("S%d", s.nextID.Add(1)),
		world:     w,
		maxChunks: maxChunks,
		debug:     hello.Capabilities.Debug,
		sent:      map[world.ChunkKey]struct{}{},
	}

	cfg := w.Config()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		CurrentWorldID:  w.ID(),
		WorldParams: protocol.WorldParams{
			Seed:         cfg.Seed,
			ChunkSize:    world.ChunkSize,
			NoiseBackend: string(cfg.Noise),
			TickRateHz:   s.opts.TickRateHz,
			MaxViewTiles: s.opts.MaxViewTiles,
		},
		Palette:       w.PaletteRef(),
		WorldManifest: s.worlds.Manifest(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil
	}
	return sess
}

// handleMessage answers one inbound message. Protocol problems are reported
// to the client; only write failures end the session.
func (s *Server) handleMessage(conn *websocket.Conn, sess *session, msg []byte) error {
	base, err := protocol.Validate(msg)
	if err != nil {
		return writeJSON(conn, protocol.NewError(protocol.ErrProtoBadRequest, err.Error(), 0))
	}
	if base.Type != protocol.TypeView {
		return writeJSON(conn, protocol.NewError(protocol.ErrProtoBadRequest, "unexpected "+base.Type, 0))
	}
	var view protocol.ViewMsg
	if err := json.Unmarshal(msg, &view); err != nil {
		return writeJSON(conn, protocol.NewError(protocol.ErrProtoBadRequest, err.Error(), 0))
	}
	msgs, errMsg := s.view(sess, view)
	if errMsg != nil {
		return writeJSON(conn, *errMsg)
	}
	for _, m := range msgs {
		if err := writeJSON(conn, m); err != nil {
			return err
		}
	}
	return nil
}

// view resolves a VIEW into one or more CHUNKS messages carrying only chunks
// this session has not seen yet. At least one message is always returned so
// every seq is acknowledged.
func (s *Server) view(sess *session, v protocol.ViewMsg) ([]protocol.ChunksMsg, *protocol.ErrorMsg) {
	for _, c := range []float64{v.X, v.Y, v.Width, v.Height} {
		if math.Abs(c) > world.MaxCoord {
			e := protocol.NewError(protocol.ErrInvalidArgument, "coordinate out of range", v.Seq)
			return nil, &e
		}
	}
	if v.Width < 0 || v.Height < 0 {
		e := protocol.NewError(protocol.ErrInvalidArgument, "negative view size", v.Seq)
		return nil, &e
	}
	if v.Width*v.Height > float64(s.opts.MaxViewTiles) {
		e := protocol.NewError(protocol.ErrTooLarge, fmt.Sprintf("view exceeds %d tiles", s.opts.MaxViewTiles), v.Seq)
		return nil, &e
	}

	rect, err := sess.world.ChunkRange(v.X, v.Y, v.Width, v.Height)
	if err != nil {
		e := protocol.NewError(errorCode(err), err.Error(), v.Seq)
		return nil, &e
	}
	// A zero width or height slips past the tile product above.
	if limit := viewChunkLimit(s.opts.MaxViewTiles); rect.Count() > limit {
		e := protocol.NewError(protocol.ErrTooLarge, fmt.Sprintf("view covers %d chunks, limit %d", rect.Count(), limit), v.Seq)
		return nil, &e
	}
	chunks, err := sess.world.ChunksInRect(v.X, v.Y, v.Width, v.Height)
	if err != nil {
		e := protocol.NewError(errorCode(err), err.Error(), v.Seq)
		return nil, &e
	}

	fresh := make([]protocol.ChunkData, 0, len(chunks))
	for _, ch := range chunks {
		k := ch.Key()
		if _, ok := sess.sent[k]; ok {
			continue
		}
		sess.sent[k] = struct{}{}
		fresh = append(fresh, world.EncodeChunk(ch, sess.debug))
	}

	var out []protocol.ChunksMsg
	for {
		n := min(len(fresh), sess.maxChunks)
		out = append(out, protocol.ChunksMsg{
			Type:            protocol.TypeChunks,
			ProtocolVersion: protocol.Version,
			Seq:             v.Seq,
			WorldID:         sess.world.ID(),
			Range:           rect.Wire(),
			Chunks:          fresh[:n],
			More:            n < len(fresh),
		})
		fresh = fresh[n:]
		if len(fresh) == 0 {
			return out, nil
		}
	}
}

// viewChunkLimit is the most chunks any w*h <= tiles view can cover with
// w, h >= 1: tiles/area inner chunks plus a partial chunk along every edge.
func viewChunkLimit(tiles int) int {
	return tiles/world.ChunkArea + 2*(tiles/world.ChunkSize+1) + 4
}

func errorCode(err error) string {
	switch world.KindOf(err) {
	case world.KindInvalidArgument:
		return protocol.ErrInvalidArgument
	default:
		return protocol.ErrInternal
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	}
	return nil
}
