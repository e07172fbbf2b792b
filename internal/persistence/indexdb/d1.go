package indexdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tileworld.ai/internal/sim/world"
)

// D1Config points the remote index at an HTTP ingest endpoint that accepts
// {"events":[...]} batches (a Cloudflare D1 worker in production).
type D1Config struct {
	Endpoint      string
	Token         string
	BatchSize     int
	FlushInterval time.Duration
	HTTPTimeout   time.Duration
	// MaxRetained caps events kept across failed flushes.
	MaxRetained int
	Logger      *log.Logger
}

type D1Index struct {
	cfg        D1Config
	httpClient *http.Client

	ch   chan d1Event
	wg   sync.WaitGroup
	once sync.Once

	// mu orders enqueues against Close; enqueuers hold it shared.
	mu     sync.RWMutex
	closed atomic.Bool

	flushFailTotal    atomic.Uint64
	queueDroppedTotal atomic.Uint64
	retainDropTotal   atomic.Uint64
	sentTotal         atomic.Uint64
}

type D1Stats struct {
	FlushFailTotal    uint64
	QueueDroppedTotal uint64
	RetainDropTotal   uint64
	SentTotal         uint64
}

type d1Event struct {
	Kind    string `json:"kind"`
	WorldID string `json:"world_id"`
	Payload any    `json:"payload"`
}

type d1WorldPayload struct {
	Seed    string  `json:"seed"`
	Noise   string  `json:"noise"`
	Planet  string  `json:"planet"`
	Alien   bool    `json:"alien"`
	BaseHue float64 `json:"base_hue"`
}

func OpenD1(cfg D1Config) (*D1Index, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("empty d1 ingest endpoint")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 128
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.MaxRetained <= 0 {
		cfg.MaxRetained = 8 * cfg.BatchSize
	}

	d := &D1Index{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		ch: make(chan d1Event, 32768),
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()

	return d, nil
}

func (d *D1Index) Close() error {
	if d == nil {
		return nil
	}
	d.once.Do(func() {
		d.mu.Lock()
		d.closed.Store(true)
		close(d.ch)
		d.mu.Unlock()
		d.wg.Wait()
	})
	return nil
}

func (d *D1Index) Stats() D1Stats {
	return D1Stats{
		FlushFailTotal:    d.flushFailTotal.Load(),
		QueueDroppedTotal: d.queueDroppedTotal.Load(),
		RetainDropTotal:   d.retainDropTotal.Load(),
		SentTotal:         d.sentTotal.Load(),
	}
}

// WriteGeneration implements world.GenerationSink.
func (d *D1Index) WriteGeneration(entry world.GenerationEntry) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	d.enqueue(d1Event{Kind: "generation", WorldID: entry.WorldID, Payload: entry})
	return nil
}

func (d *D1Index) RecordWorld(w *world.World) {
	if d == nil || d.closed.Load() || w == nil {
		return
	}
	p := w.PaletteRef()
	d.enqueue(d1Event{Kind: "world", WorldID: w.ID(), Payload: d1WorldPayload{
		Seed:    w.Seed(),
		Noise:   string(w.Config().Noise),
		Planet:  p.Planet,
		Alien:   p.Alien,
		BaseHue: p.BaseHue,
	}})
}

func (d *D1Index) enqueue(ev d1Event) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed.Load() {
		return
	}
	select {
	case d.ch <- ev:
	default:
		d.queueDroppedTotal.Add(1)
		d.printf("d1 index queue full; drop kind=%s world=%s", ev.Kind, ev.WorldID)
	}
}

// loop batches events. A failed batch is retained and retried on the next
// flush, up to MaxRetained events; the oldest events are dropped beyond that.
func (d *D1Index) loop() {
	ticker := time.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]d1Event, 0, d.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := d.sendBatch(batch); err != nil {
			d.flushFailTotal.Add(1)
			d.printf("d1 index flush failed batch=%d err=%v", len(batch), err)
			if over := len(batch) - d.cfg.MaxRetained; over > 0 {
				d.retainDropTotal.Add(uint64(over))
				batch = append(batch[:0], batch[over:]...)
			}
			return
		}
		d.sentTotal.Add(uint64(len(batch)))
		batch = batch[:0]
	}

	for {
		select {
		case ev, ok := <-d.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, ev)
			if len(batch) >= d.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (d *D1Index) sendBatch(events []d1Event) error {
	body := struct {
		Events []d1Event `json:"events"`
	}{Events: events}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, d.cfg.Endpoint, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")
	if d.cfg.Token != "" {
		req.Header.Set("x-tw-index-token", d.cfg.Token)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

func (d *D1Index) printf(format string, args ...any) {
	if d != nil && d.cfg.Logger != nil {
		d.cfg.Logger.Printf(format, args...)
	}
}
