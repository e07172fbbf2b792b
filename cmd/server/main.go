package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	persistlog "tileworld.ai/internal/persistence/log"
	"tileworld.ai/internal/sim/multiworld"
	"tileworld.ai/internal/sim/tuning"
	"tileworld.ai/internal/transport/observer"
	"tileworld.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		worldsPath = flag.String("worlds", "", "path to worlds.yaml (default: <configs>/worlds.yaml; a single OVERWORLD if absent)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the generation index")
		disableLog = flag.Bool("disable_gen_log", false, "disable per-world generation logs")

		warm         = flag.String("warm", "", "x,y,w,h world-space rect to pre-generate in every world at startup")
		maxViewTiles = flag.Int("max_view_tiles", 512*512, "largest VIEW area (tiles) a ws client may request")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	wp := strings.TrimSpace(*worldsPath)
	if wp == "" {
		wp = filepath.Join(*configDir, "worlds.yaml")
	}
	if _, err := os.Stat(wp); err != nil {
		logger.Printf("worlds config not found (%s); serving a single world", wp)
		wp = ""
	}
	mcfg, err := multiworld.Load(wp)
	if err != nil {
		logger.Fatalf("load worlds config: %v", err)
	}
	mgr, err := multiworld.NewManager(mcfg, tune)
	if err != nil {
		logger.Fatalf("create worlds: %v", err)
	}
	for _, ref := range mgr.Manifest() {
		logger.Printf("world %s seed=%q noise=%s", ref.WorldID, ref.Seed, ref.Noise)
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Optional: read-model index backend (does not affect generation).
	idx, err := openRuntimeIndex(*dataDir, *disableDB, logger)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		mgr.Observe(idx)
		for _, id := range mgr.WorldIDs() {
			w, _ := mgr.World(id)
			idx.RecordWorld(w)
		}
	}

	genLogs := map[string]*persistlog.GenLogger{}
	if !*disableLog {
		for _, id := range mgr.WorldIDs() {
			worldDir := filepath.Join(*dataDir, "worlds", id)
			_ = os.MkdirAll(worldDir, 0o755)
			gl := persistlog.NewGenLogger(worldDir)
			defer gl.Close()
			mgr.Runtime(id).World.Observe(gl)
			genLogs[id] = gl
		}
	}
	mgr.OnSinkError(func(worldID string, err error) {
		logger.Printf("generation sink (%s): %v", worldID, err)
	})

	enableAdminHTTP := envBool("TW_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("TW_ENABLE_PPROF_HTTP", false)

	var obsSrv *observer.Server
	if enableAdminHTTP {
		obsSrv = observer.NewServer(mgr, logger)
	}

	if strings.TrimSpace(*warm) != "" {
		x, y, w, h, err := parseRect(*warm)
		if err != nil {
			logger.Fatalf("-warm: %v", err)
		}
		go func() {
			start := time.Now()
			if err := mgr.Warm(ctx, x, y, w, h, tune.PrefetchWorkers); err != nil {
				logger.Printf("warm: %v", err)
				return
			}
			logger.Printf("warmed %s in %s", *warm, time.Since(start).Round(time.Millisecond))
		}()
	}

	api := &httpAPI{mgr: mgr, tune: tune, idx: idx, genLogs: genLogs, observer: obsSrv}

	mux := http.NewServeMux()
	api.register(mux)
	if obsSrv != nil {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())
	} else {
		logger.Printf("admin endpoints disabled (TW_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (TW_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(mgr, ws.Options{
		TickRateHz:   tune.TickRateHz,
		MaxViewTiles: *maxViewTiles,
	}, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

// parseRect parses "x,y,w,h".
func parseRect(s string) (x, y, w, h float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("want x,y,w,h, got %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		v[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("bad rect component %q: %w", p, err)
		}
	}
	if v[2] < 0 || v[3] < 0 {
		return 0, 0, 0, 0, fmt.Errorf("negative rect size in %q", s)
	}
	return v[0], v[1], v[2], v[3], nil
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
