package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"farmgrid.io/internal/persistence/archive"
	persistlog "farmgrid.io/internal/persistence/log"
	"farmgrid.io/internal/persistence/save"
	"farmgrid.io/internal/persistence/savestore"
	"farmgrid.io/internal/protocol"
	"farmgrid.io/internal/sim/catalogs"
	"farmgrid.io/internal/sim/farm"
	"farmgrid.io/internal/sim/tuning"
	"farmgrid.io/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		farmID     = flag.String("farm", "farm_1", "farm id")
		seed       = flag.Int64("seed", 1337, "rng seed (used only when starting a fresh farm)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		resumeSlot = flag.String("resume_slot", "autosave", "save slot to resume from (empty starts fresh)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	farmDir := filepath.Join(*dataDir, "farms", *farmID)
	_ = os.MkdirAll(farmDir, 0o755)

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

	store, err := savestore.Open(filepath.Join(farmDir, "saves.db"))
	if err != nil {
		logger.Fatalf("open save store: %v", err)
	}
	defer store.Close()
	if infos, err := store.List(); err == nil && len(infos) > 0 {
		names := make([]string, 0, len(infos))
		for _, in := range infos {
			names = append(names, in.Slot)
		}
		logger.Printf("save slots: %s", strings.Join(names, ", "))
	}

	f, err := farm.New(farm.FarmConfig{
		ID:         *farmID,
		TickRateHz: tune.TickRateHz,
		Seed:       *seed,
	}, tune, cats, logger)
	if err != nil {
		logger.Fatalf("farm: %v", err)
	}
	f.SetStore(store)

	// Resume: prefer the store slot, fall back to the newest file backup.
	if slot := strings.TrimSpace(*resumeSlot); slot != "" {
		doc, err := store.Get(slot)
		if err != nil {
			logger.Fatalf("read save slot %q: %v", slot, err)
		}
		if doc == nil {
			if path := latestSaveFile(farmDir); path != "" {
				doc, err = save.ReadFile(path)
				if err != nil {
					logger.Fatalf("read save file %s: %v", filepath.Base(path), err)
				}
				logger.Printf("resuming from file backup %s", filepath.Base(path))
			}
		}
		if doc != nil {
			if err := f.ImportSave(doc); err != nil {
				logger.Fatalf("import save: %v", err)
			}
			_, _, day, season, year := f.TimeData()
			logger.Printf("resumed slot=%s day=%d season=%s year=%d", slot, day, season, year)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(farmDir)
	auditLog := persistlog.NewAuditLogger(farmDir)
	defer tickLog.Close()
	defer auditLog.Close()
	f.SetTickLogger(tickLog)
	// Audits go to the JSONL log (source of truth) and the store's queryable
	// index.
	f.SetAuditLogger(multiAuditLogger{a: auditLog, b: store})

	// Autosave writer. The loop hands over a copy; persist it to the store
	// slot and keep a compressed file backup for store-loss recovery. When a
	// season rolls over, the previous backup was that season's last save and
	// gets archived.
	saveCh := make(chan save.SaveV1, 2)
	f.SetSaveSink(saveCh)
	go func() {
		var prevDoc *save.SaveV1
		var prevPath string
		for {
			select {
			case <-ctx.Done():
				return
			case doc := <-saveCh:
				if err := store.Put(tune.AutosaveSlot, &doc); err != nil {
					logger.Printf("autosave: %v", err)
					continue
				}
				path := filepath.Join(farmDir, "saves", fmt.Sprintf("%s-%d.save.zst", tune.AutosaveSlot, doc.Timestamp))
				if err := save.WriteFile(path, tune.AutosaveSlot, &doc); err != nil {
					logger.Printf("autosave backup: %v", err)
					continue
				}
				if prevDoc != nil && (prevDoc.Time.Season != doc.Time.Season || prevDoc.Time.Year != doc.Time.Year) {
					if ap, err := archive.ArchiveSeasonSave(farmDir, prevPath, prevDoc); err != nil {
						logger.Printf("season archive: %v", err)
					} else {
						logger.Printf("archived %s year %d season end: %s", prevDoc.Time.Season, prevDoc.Time.Year, ap)
					}
				}
				prevDoc, prevPath = &doc, path
			}
		}
	}()

	go func() {
		if err := f.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("farm stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(*farmID, f, store))

	enableAdminHTTP := envBool("FG_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("FG_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			b := f.AdminStateJSON()
			if b == nil {
				http.Error(rw, "farm loop not responding", http.StatusServiceUnavailable)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			_, _ = rw.Write(b)
		})
		mux.HandleFunc("/admin/v1/save", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			if r.Method != http.MethodPost {
				http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			slot := strings.TrimSpace(r.URL.Query().Get("slot"))
			if slot == "" {
				slot = tune.AutosaveSlot
			}
			env := farm.CommandEnvelope{
				SessionID: "admin",
				Cmd: protocol.CommandReq{
					ID:   fmt.Sprintf("admin_save_%d", time.Now().UnixMilli()),
					Type: "SAVE",
					Slot: slot,
				},
			}
			select {
			case f.Inbox() <- env:
				rw.Header().Set("Content-Type", "application/json")
				rw.WriteHeader(http.StatusAccepted)
				fmt.Fprintf(rw, "{\"enqueued\":true,\"slot\":%q}\n", slot)
			default:
				http.Error(rw, "farm inbox full", http.StatusServiceUnavailable)
			}
		})
	} else {
		logger.Printf("admin endpoints disabled (FG_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(f, logger).Handler())

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

type multiAuditLogger struct {
	a farm.AuditLogger
	b farm.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry farm.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}

func metricsHandler(farmID string, f *farm.Farm, store *savestore.SQLiteStore) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		s := f.Stats()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP farmgrid_farm_tick Current farm tick.\n")
		fmt.Fprintf(rw, "# TYPE farmgrid_farm_tick gauge\n")
		fmt.Fprintf(rw, "farmgrid_farm_tick{farm=%q} %d\n", farmID, f.CurrentTick())

		fmt.Fprintf(rw, "# HELP farmgrid_sessions Currently connected sessions.\n")
		fmt.Fprintf(rw, "# TYPE farmgrid_sessions gauge\n")
		fmt.Fprintf(rw, "farmgrid_sessions{farm=%q} %d\n", farmID, s.Sessions.Load())

		fmt.Fprintf(rw, "# HELP farmgrid_commands_total Commands processed by result.\n")
		fmt.Fprintf(rw, "# TYPE farmgrid_commands_total counter\n")
		fmt.Fprintf(rw, "farmgrid_commands_total{farm=%q,result=%q} %d\n", farmID, "ok", s.CommandsOK.Load())
		fmt.Fprintf(rw, "farmgrid_commands_total{farm=%q,result=%q} %d\n", farmID, "failed", s.CommandsFailed.Load())

		fmt.Fprintf(rw, "# HELP farmgrid_events_emitted_total Events appended to state broadcasts.\n")
		fmt.Fprintf(rw, "# TYPE farmgrid_events_emitted_total counter\n")
		fmt.Fprintf(rw, "farmgrid_events_emitted_total{farm=%q} %d\n", farmID, s.EventsEmitted.Load())

		fmt.Fprintf(rw, "# HELP farmgrid_weather_changes_total Weather kind changes.\n")
		fmt.Fprintf(rw, "# TYPE farmgrid_weather_changes_total counter\n")
		fmt.Fprintf(rw, "farmgrid_weather_changes_total{farm=%q} %d\n", farmID, s.WeatherChanges.Load())

		fmt.Fprintf(rw, "# HELP farmgrid_days_elapsed_total In-game day rollovers.\n")
		fmt.Fprintf(rw, "# TYPE farmgrid_days_elapsed_total counter\n")
		fmt.Fprintf(rw, "farmgrid_days_elapsed_total{farm=%q} %d\n", farmID, s.DaysElapsed.Load())

		fmt.Fprintf(rw, "# HELP farmgrid_saves_total Save documents written.\n")
		fmt.Fprintf(rw, "# TYPE farmgrid_saves_total counter\n")
		fmt.Fprintf(rw, "farmgrid_saves_total{farm=%q} %d\n", farmID, s.SavesTotal.Load())

		fmt.Fprintf(rw, "# HELP farmgrid_loads_total Save documents imported.\n")
		fmt.Fprintf(rw, "# TYPE farmgrid_loads_total counter\n")
		fmt.Fprintf(rw, "farmgrid_loads_total{farm=%q} %d\n", farmID, s.LoadsTotal.Load())

		idx := store.Stats()
		fmt.Fprintf(rw, "# HELP farmgrid_audit_queue_depth Queued audit entries awaiting the index writer.\n")
		fmt.Fprintf(rw, "# TYPE farmgrid_audit_queue_depth gauge\n")
		fmt.Fprintf(rw, "farmgrid_audit_queue_depth{farm=%q} %d\n", farmID, idx.QueueDepth)

		fmt.Fprintf(rw, "# HELP farmgrid_audit_index_dropped_total Audit entries dropped on index queue overflow.\n")
		fmt.Fprintf(rw, "# TYPE farmgrid_audit_index_dropped_total counter\n")
		fmt.Fprintf(rw, "farmgrid_audit_index_dropped_total{farm=%q} %d\n", farmID, idx.DropAuditTotal)
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

// latestSaveFile returns the newest autosave backup by embedded timestamp.
func latestSaveFile(farmDir string) string {
	dir := filepath.Join(farmDir, "saves")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTS int64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".save.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".save.zst")
		i := strings.LastIndexByte(base, '-')
		if i < 0 {
			continue
		}
		ts, err := strconv.ParseInt(base[i+1:], 10, 64)
		if err != nil {
			continue
		}
		if best == "" || ts > bestTS {
			bestTS = ts
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
