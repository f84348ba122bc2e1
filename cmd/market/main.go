package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"golang.org/x/sync/errgroup"

	"market/internal/admin"
	"market/internal/engine"
	"market/internal/journal"
	"market/internal/obs"
	"market/internal/ops"
	"market/internal/statsdb"
	"market/internal/transport"
	"market/pkg/conn"
)

func main() {
	if err := run(); err != nil {
		log.Printf("market: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON or YAML config")
	envPath := flag.String("env", "", "Path to .env file (default: ./.env when present)")
	tcpAddr := flag.String("tcp", "", "Order entry listen address (overrides config)")
	group := flag.String("multicast", "", "Top-of-book multicast group (overrides config)")
	adminAddr := flag.String("admin", "", "Admin HTTP address (overrides config)")
	journalDir := flag.String("journal-dir", "", "Replay journal directory (overrides config)")
	noSeed := flag.Bool("no-seed", false, "Start with an empty book")
	flag.Parse()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		return err
	}
	cfg, err = ops.LoadEnv(cfg, *envPath)
	if err != nil {
		return err
	}
	if *tcpAddr != "" {
		cfg.TCPAddr = *tcpAddr
	}
	if *group != "" {
		cfg.MulticastGroup = *group
	}
	if *adminAddr != "" {
		cfg.AdminAddr = *adminAddr
	}
	if *journalDir != "" {
		cfg.JournalDir = *journalDir
	}
	if *noSeed {
		cfg.Seeds = nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.PyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "market",
			ServerAddress:   cfg.PyroscopeAddr,
			Tags:            map[string]string{"symbol": cfg.Symbol},
			Logger:          profilerLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	runID := uuid.New()
	metrics := obs.NewMetrics()

	eng, err := engine.New(cfg.Engine(), metrics)
	if err != nil {
		return err
	}

	jr, err := journal.Open(cfg.Journal())
	if err != nil {
		return err
	}
	defer func() {
		if err := jr.Close(); err != nil {
			logs.Errorf("market: close journal, err: %+v", err)
		}
	}()

	var sender engine.Sender
	if cfg.MulticastGroup != "" {
		mc, err := transport.DialMulticast(cfg.MulticastGroup)
		if err != nil {
			return err
		}
		defer mc.Close()
		sender = mc
	}

	pub, err := engine.NewPublisher(cfg.Publisher(), eng, jr, sender, metrics)
	if err != nil {
		return err
	}

	seeds, err := cfg.SeedOrders()
	if err != nil {
		return err
	}
	if err := eng.Seed(seeds); err != nil {
		return err
	}

	srv, err := transport.NewServer(cfg.TCPAddr, eng, metrics)
	if err != nil {
		return err
	}
	if err := srv.Listen(); err != nil {
		return err
	}
	defer srv.Close()

	var store *statsdb.Store
	if cfg.PostgresDSN != "" {
		pg, err := conn.OpenPostgres(ctx, conn.Option{DSN: cfg.PostgresDSN})
		if err != nil {
			return err
		}
		defer pg.Close()
		store, err = statsdb.New(pg.DB(), runID, cfg.Symbol)
		if err != nil {
			return err
		}
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	logs.Infof("market: run %s, symbol %s, tcp %s, multicast %s, journal %s",
		runID, cfg.Symbol, srv.Addr(), cfg.MulticastGroup, jr.Path())

	// The publisher outlives the matching loop so that it can drain the
	// last results into the journal.
	pubCtx, stopPublisher := context.WithCancel(context.Background())
	defer stopPublisher()
	pubDone := make(chan error, 1)
	go func() {
		pubDone <- pub.Run(pubCtx)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(gctx)
	})
	g.Go(func() error {
		return srv.Serve(gctx)
	})
	if cfg.AdminAddr != "" {
		adm := admin.New(admin.Options{
			Addr:        cfg.AdminAddr,
			Symbol:      cfg.Symbol,
			RunID:       runID.String(),
			CORSOrigins: cfg.CORSOrigins,
		}, pub, eng, metrics)
		pub.Subscribe(adm.Feed().Publish)
		g.Go(func() error {
			return adm.ListenAndServe(gctx)
		})
	}
	if store != nil {
		g.Go(func() error {
			store.Run(gctx, cfg.StatsInterval.Std(), pub)
			return nil
		})
	}

	err = g.Wait()
	stopPublisher()
	if pubErr := <-pubDone; pubErr != nil && err == nil {
		err = pubErr
	}

	stats := eng.Stats()
	logs.Infof("market: stopped, orders %d, cancels %d, trades %d, volume %d, journal records %d",
		stats.OrderCount, stats.CancelCount, stats.TradeCount, stats.Volume, jr.Records())
	return err
}

type profilerLogger struct{}

func (profilerLogger) Infof(format string, args ...interface{})  { logs.Infof(format, args...) }
func (profilerLogger) Debugf(_ string, _ ...interface{})         {}
func (profilerLogger) Errorf(format string, args ...interface{}) { logs.Errorf(format, args...) }
