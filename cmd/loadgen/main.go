package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/yanun0323/logs"
	"golang.org/x/sync/errgroup"

	"market/internal/chaos"
	"market/internal/codec"
	"market/internal/model"
	"market/internal/strategy"
	"market/internal/transport"
)

type snapshot struct {
	bid, ask model.OrderEntry
}

func main() {
	if err := run(); err != nil {
		log.Printf("loadgen: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "127.0.0.1:54000", "Order entry address")
	group := flag.String("multicast", "", "Top-of-book multicast group to react to (empty: trade blind)")
	symbol := flag.String("symbol", "AAPL", "Ticker to trade")
	name := flag.String("strategy", "random", "Strategy: random, maker or taker")
	clients := flag.Int("clients", 1, "Number of concurrent connections")
	count := flag.Int("count", 0, "Orders per client (0=until interrupted)")
	minDelay := flag.Duration("min-delay", 5*time.Millisecond, "Minimum pause between orders")
	maxDelay := flag.Duration("max-delay", 35*time.Millisecond, "Maximum pause between orders")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	dropRate := flag.Float64("drop-rate", 0, "Probability an order is never sent")
	dupRate := flag.Float64("dup-rate", 0, "Probability an order is sent twice")
	reorder := flag.Int("reorder", 1, "Reorder window in orders (1=in order)")
	latency := flag.Duration("latency", 0, "Simulated one-way latency added to each send")
	jitter := flag.Duration("jitter", 0, "Uniform extra latency on top of -latency")
	flag.Parse()

	if *clients <= 0 {
		return errors.New("clients must be > 0")
	}
	if *maxDelay < *minDelay {
		return errors.New("max-delay must be >= min-delay")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var latest atomic.Pointer[snapshot]
	latest.Store(&snapshot{})

	listenCtx, stopListen := context.WithCancel(ctx)
	defer stopListen()
	listenDone := make(chan error, 1)
	if *group != "" {
		udp, err := transport.ListenMulticast(*group)
		if err != nil {
			return err
		}
		context.AfterFunc(listenCtx, func() { _ = udp.Close() })
		go func() { listenDone <- listen(listenCtx, udp, &latest) }()
	} else {
		listenDone <- nil
	}

	g, gctx := errgroup.WithContext(ctx)

	var sent atomic.Uint64
	sym := model.NewSymbol(*symbol)
	for i := 0; i < *clients; i++ {
		s, err := strategy.New(*name, sym, *seed+int64(i))
		if err != nil {
			return err
		}
		link, err := chaos.NewEngine[strategy.Order](chaos.Config{
			Seed:          *seed + int64(*clients+i),
			DropRate:      *dropRate,
			DuplicateRate: *dupRate,
			ReorderWindow: *reorder,
			Latency:       *latency,
			Jitter:        *jitter,
		})
		if err != nil {
			return err
		}
		rng := rand.New(rand.NewSource(*seed - int64(i)))
		g.Go(func() error {
			return trade(gctx, *addr, s, link, rng, *count, *minDelay, *maxDelay, &latest, &sent)
		})
	}

	start := time.Now()
	err := g.Wait()
	elapsed := time.Since(start)
	stopListen()
	if lerr := <-listenDone; err == nil {
		err = lerr
	}
	logs.Infof("loadgen: sent %d orders in %s (%.0f/s)", sent.Load(), elapsed.Round(time.Millisecond), float64(sent.Load())/elapsed.Seconds())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func listen(ctx context.Context, conn *net.UDPConn, latest *atomic.Pointer[snapshot]) error {
	buf := make([]byte, 2*codec.L1SnapshotSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		bid, ask, ok := codec.DecodeL1Snapshot(buf[:n])
		if !ok {
			continue
		}
		latest.Store(&snapshot{bid: bid, ask: ask})
	}
}

func trade(ctx context.Context, addr string, s strategy.Strategy, link *chaos.Engine[strategy.Order], rng *rand.Rand, count int,
	minDelay, maxDelay time.Duration, latest *atomic.Pointer[snapshot], sent *atomic.Uint64) error {
	client, err := transport.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	send := func(orders []strategy.Order) error {
		for _, order := range orders {
			if d := link.Delay(); d > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(d):
				}
			}
			if err := client.Place(order.Call, order.Entry); err != nil {
				return err
			}
			sent.Add(1)
		}
		return nil
	}
	defer func() { _ = send(link.Flush()) }()

	for n := 0; count == 0 || n < count; n++ {
		top := latest.Load()
		if order, ok := s.Decide(top.bid, top.ask); ok {
			if err := send(link.Process(order)); err != nil {
				return err
			}
		}

		delay := minDelay
		if span := maxDelay - minDelay; span > 0 {
			delay += time.Duration(rng.Int63n(int64(span)))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
	return nil
}
