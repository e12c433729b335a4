package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/splinter-platform/splinter/internal/admin"
	"github.com/splinter-platform/splinter/internal/authpool"
	"github.com/splinter-platform/splinter/internal/connection"
	"github.com/splinter-platform/splinter/internal/dispatch"
	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/lifecycle"
	"github.com/splinter-platform/splinter/internal/logging"
	"github.com/splinter-platform/splinter/internal/orchestrator"
	"github.com/splinter-platform/splinter/internal/peer"
	"github.com/splinter-platform/splinter/internal/store"
	"github.com/splinter-platform/splinter/internal/timer"
	"github.com/splinter-platform/splinter/internal/transport"
)

var (
	nodeID       string
	listenAddr   string
	databaseURL  string
	walDir       string
	logLevel     string
	dialTimeout  time.Duration
	writeLockTimeout time.Duration
	alarmTick    time.Duration
	dispatchConcurrency int
	authPoolSize int
)

func init() {
	flag.StringVar(&nodeID, "node", "", "this node's id (required)")
	flag.StringVar(&listenAddr, "addr", "127.0.0.1:8044", "the tcp address this node listens on")
	flag.StringVar(&databaseURL, "db", "", "postgres connection string (required)")
	flag.StringVar(&walDir, "wal-dir", "./logs/splinterd-wal", "directory for the local alarm journal")
	flag.StringVar(&logLevel, "log-level", "info", "log level: error, warn, info, debug, trace")
	flag.DurationVar(&dialTimeout, "dial-timeout", 5*time.Second, "peer dial timeout")
	flag.DurationVar(&writeLockTimeout, "write-lock-timeout", 5*time.Second, "exclusive write pool acquire timeout")
	flag.DurationVar(&alarmTick, "alarm-tick", time.Second, "timer engine poll period")
	flag.IntVar(&dispatchConcurrency, "dispatch-concurrency", 16, "bounded concurrency for async circuit dispatch")
	flag.IntVar(&authPoolSize, "auth-pool-size", 8, "bounded concurrency for inbound authorization handshakes")
}

func parseLevel(s string) logging.Level {
	switch s {
	case "error":
		return logging.LevelError
	case "warn":
		return logging.LevelWarn
	case "debug":
		return logging.LevelDebug
	case "trace":
		return logging.LevelTrace
	default:
		return logging.LevelInfo
	}
}

func main() {
	flag.Parse()
	if nodeID == "" || databaseURL == "" {
		flag.Usage()
		os.Exit(2)
	}

	log := logging.New("splinterd", parseLevel(logLevel), io.Writer(os.Stderr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewPostgresStore(ctx, databaseURL, writeLockTimeout, log)
	if err != nil {
		log.Errorf("open store: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	journal, err := store.OpenDurableLog(walDir)
	if err != nil {
		log.Errorf("open durable log: %v", err)
		os.Exit(1)
	}
	defer journal.Close()

	matrix := connection.New()
	dialer := transport.NewTCPDialer(dialTimeout)
	peers := peer.NewManager(matrix, dialer, log)

	listener, err := transport.ListenTCP(listenAddr)
	if err != nil {
		log.Errorf("listen on %s: %v", listenAddr, err)
		os.Exit(1)
	}
	defer listener.Close()

	dispatcher := dispatch.NewDispatcher(ctx, dispatchConcurrency)
	defer func() {
		if err := dispatcher.Wait(); err != nil {
			log.Warnf("dispatcher drain: %v", err)
		}
	}()
	router := &circuitRouter{loader: db, peers: peers, nodeTrust: ids.TrustToken}
	forwarder := dispatch.NewForwarder(router, matrix)

	registry := admin.NewRegistry()
	events := admin.NewEventLog()
	adminService := admin.NewService(db, registry, events, log)

	lifecycleExecutor := lifecycle.NewExecutor(lifecycle.Map{}, db, log)
	lifecycleExecutor.Start(ctx)
	defer lifecycleExecutor.Shutdown()

	timerEngine := timer.NewEngine(db, timer.FactoryMap{}, alarmTick, journal, log)
	timerEngine.Start(ctx)
	defer timerEngine.Stop()

	orch := orchestrator.NewOrchestrator(db, db, lifecycleExecutor, events, log)
	lifecycleExecutor.SetObserver(orch)
	orchEvents, unsubscribe := events.Subscribe(64)
	defer unsubscribe()
	orch.Run(ctx, orchEvents)

	senderFactory := orchestrator.NewMessageSenderFactory(forwarder)
	_ = senderFactory
	_ = adminService

	pool := authpool.New(ctx, authPoolSize)
	defer func() {
		if err := pool.Wait(); err != nil {
			log.Warnf("authorization pool drain: %v", err)
		}
	}()

	go acceptLoop(ctx, listener, matrix, pool.Executor(), log)

	log.Infof("splinterd node %s listening on %s", nodeID, listenAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Infof("shutting down")
}

// acceptLoop accepts inbound transport connections and hands each to the
// authorization pool so the handshake work (and, once wired, running
// internal/auth's AcceptingMachine per connection) runs off the accept
// goroutine. While every pool slot is busy, Execute blocks and the loop
// stops accepting until a slot frees up. Registration in the
// connection matrix under the remote endpoint as a placeholder id stands
// in for the full handshake until a concrete service type exists to
// drive internal/auth's AcceptingMachine end to end.
func acceptLoop(ctx context.Context, listener transport.Listener, matrix *connection.Matrix, exec authpool.Executor, log *logging.Logger) {
	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			log.Warnf("accept inbound connection: %v", err)
			continue
		}
		exec.Execute(func() error {
			matrix.Add(connection.ID(conn.RemoteEndpoint()), conn)
			log.Infof("accepted inbound connection from %s", conn.RemoteEndpoint())
			return nil
		})
	}
}
