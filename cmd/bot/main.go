// Command bot is a headless viewport client: it pans a camera across a world,
// sends a VIEW per tick and checks every chunk it receives against its digest.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"tileworld.ai/internal/loop"
	"tileworld.ai/internal/protocol"
	"tileworld.ai/internal/sim/world"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "client name")
		worldID  = flag.String("world", "", "world preference (default: server default)")
		speed    = flag.Float64("speed", 40, "camera speed in tiles per second")
		heading  = flag.Float64("heading", 30, "camera heading in degrees")
		viewW    = flag.Float64("view_w", 100, "view width in tiles")
		viewH    = flag.Float64("view_h", 75, "view height in tiles")
		tps      = flag.Int("tps", 10, "VIEW messages per second")
		duration = flag.Duration("duration", 0, "stop after this long (0 = until interrupted)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		WorldPreference: *worldID,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	rad := *heading * math.Pi / 180
	b := &bot{
		conn: conn,
		log:  logger,
		vx:   *speed * math.Cos(rad),
		vy:   *speed * math.Sin(rad),
		w:    *viewW,
		h:    *viewH,
	}
	lp := loop.New(b.update, b.sendView, *tps)

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.readLoop(ctx, lp)
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}
	lp.Stop()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
	logger.Printf("done: views=%d chunks=%d bad=%d errors=%d", b.seq.Load(), b.chunks.Load(), b.bad.Load(), b.errs.Load())
	if b.bad.Load() > 0 {
		os.Exit(1)
	}
}

type bot struct {
	conn *websocket.Conn
	log  *log.Logger

	wmu sync.Mutex // serializes writes

	camX, camY float64
	vx, vy     float64
	w, h       float64

	seq    atomic.Uint64
	chunks atomic.Uint64
	bad    atomic.Uint64
	errs   atomic.Uint64
}

func (b *bot) update(dt float64) {
	b.camX += b.vx * dt
	b.camY += b.vy * dt
}

func (b *bot) sendView() {
	v := protocol.ViewMsg{
		Type:            protocol.TypeView,
		ProtocolVersion: protocol.Version,
		Seq:             b.seq.Add(1),
		X:               b.camX,
		Y:               b.camY,
		Width:           b.w,
		Height:          b.h,
	}
	b.wmu.Lock()
	defer b.wmu.Unlock()
	_ = b.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := b.conn.WriteJSON(v); err != nil {
		b.log.Printf("send VIEW: %v", err)
	}
}

// readLoop starts lp once WELCOME arrives and returns when the connection ends.
func (b *bot) readLoop(ctx context.Context, lp *loop.Loop) {
	for {
		_, msg, err := b.conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			b.log.Printf("WELCOME session=%s world=%s seed=%q planet=%s alien=%v",
				w.SessionID, w.CurrentWorldID, w.WorldParams.Seed, w.Palette.Planet, w.Palette.Alien)
			lp.Start(ctx)

		case protocol.TypeChunks:
			var cm protocol.ChunksMsg
			if err := json.Unmarshal(msg, &cm); err != nil {
				continue
			}
			ok, bad := checkChunks(cm)
			b.chunks.Add(uint64(ok))
			b.bad.Add(uint64(len(bad)))
			for _, err := range bad {
				b.log.Printf("seq=%d: %v", cm.Seq, err)
			}

		case protocol.TypeError:
			var em protocol.ErrorMsg
			if err := json.Unmarshal(msg, &em); err != nil {
				continue
			}
			b.errs.Add(1)
			b.log.Printf("ERROR ref=%d %s: %s", em.Ref, em.Code, em.Message)
		}
	}
}

// checkChunks decodes every chunk of cm and reports those that fail to
// decode, fall outside cm.Range or do not match their digest.
func checkChunks(cm protocol.ChunksMsg) (ok int, bad []error) {
	for _, cd := range cm.Chunks {
		if cd.CX < cm.Range.MinCX || cd.CX > cm.Range.MaxCX || cd.CY < cm.Range.MinCY || cd.CY > cm.Range.MaxCY {
			bad = append(bad, fmt.Errorf("chunk (%d,%d) outside range %+v", cd.CX, cd.CY, cm.Range))
			continue
		}
		if _, err := world.DecodeChunk(cd); err != nil {
			bad = append(bad, err)
			continue
		}
		ok++
	}
	return ok, bad
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
