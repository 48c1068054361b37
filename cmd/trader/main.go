package main

import (
	"context"
	"flag"
	"log"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/bus"
	"main/internal/chain"
	"main/internal/event"
	"main/internal/feed"
	"main/internal/framework"
	"main/internal/guard"
	"main/internal/journal"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/strategy/grid"
	"main/internal/txmgr"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	owner := flag.String("owner", "grid-1", "Owner tag matched against order events")
	duration := flag.Duration("duration", 0, "Stop after this long (0=run until signal)")
	feedTick := flag.Duration("feed-tick", 250*time.Millisecond, "Synthetic feed tick interval")
	chainLatency := flag.Duration("chain-latency", 20*time.Millisecond, "Simulated execution latency")
	revertEvery := flag.Int("revert-every", 0, "Revert every Nth mined transaction (0=never)")
	failEvery := flag.Int("fail-every", 0, "Fail every Nth execution before mining (0=never)")
	startNonce := flag.Uint64("start-nonce", 0, "Initial account nonce on the simulated chain")
	flag.Parse()

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if addr := loaded.Profiling.ServerAddress; addr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "trader",
			ServerAddress:   addr,
			Tags: map[string]string{
				"pair": loaded.Pair.Name,
			},
			Logger: emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	metrics := obs.NewMetrics()
	queue := bus.NewQueue(loaded.Engine.QueueCapacity)

	sim := chain.NewSim(chain.SimConfig{
		StartNonce:  *startNonce,
		RevertEvery: *revertEvery,
		FailEvery:   *failEvery,
		Latency:     *chainLatency,
	})
	nonce, err := sim.PendingNonce(ctx)
	if err != nil {
		log.Fatalf("pending nonce query failed: %v", err)
	}

	manager, err := txmgr.NewManager(loaded.Txmgr, queue, sim, nonce, metrics)
	if err != nil {
		log.Fatalf("tx manager init failed: %v", err)
	}

	breaker := guard.NewBreaker(loaded.Guard)
	var strategy framework.Strategy = grid.New(loaded.Grid, loaded.Pair, *owner, manager, sim.Execute, breaker)

	if dsn := loaded.Journal.DSN; dsn != "" {
		j, err := journal.Open(dsn)
		if err != nil {
			log.Fatalf("journal open failed: %v", err)
		}
		strategy = journal.Wrap(strategy, j)
	}

	fw, err := framework.New(queue, manager, strategy, metrics)
	if err != nil {
		log.Fatalf("framework init failed: %v", err)
	}

	source := feed.NewSim(feed.SimConfig{Tick: *feedTick}, loaded.Pair, queue, metrics)
	go func() {
		if err := source.Run(ctx); err != nil {
			logs.Errorf("feed stopped: %+v", err)
		}
	}()

	go func() {
		select {
		case <-sys.Shutdown():
			logs.Info("shutdown signal received")
		case <-ctx.Done():
		}
		cancel()
	}()

	seedBalances(queue, loaded)

	if err := fw.Run(ctx); err != nil {
		log.Fatalf("framework run failed: %v", err)
	}

	snapshot := metrics.Snapshot()
	logs.Infof("run completed: events=%v drops=%d placed=%d succeeded=%d failed=%d rewinds=%d resyncs=%d dispatch=%+v submit=%+v resolve=%+v",
		snapshot.EventCounts, snapshot.QueueDrops, snapshot.TxPlaced, snapshot.TxSucceeded,
		snapshot.TxFailed, snapshot.NonceRewinds, snapshot.NonceResyncs,
		snapshot.Dispatch, snapshot.Submit, snapshot.Resolve)
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return ops.Default(), nil
	}
	return ops.Load(path)
}

// seedBalances emulates the startup wallet balance query the strategy
// consumes before quoting.
func seedBalances(queue *bus.Queue, loaded ops.Loaded) {
	err := queue.TryPublish(event.Query{
		ID:    1,
		Topic: "balances",
		Data: map[string]int64{
			loaded.Pair.Base:  1_000_000_000,
			loaded.Pair.Quote: 1_000_000_000_000,
		},
		TsNano: time.Now().UTC().UnixNano(),
	})
	if err != nil {
		logs.Errorf("seed balances: %+v", err)
	}
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
