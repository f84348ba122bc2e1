package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"market/internal/engine"
	"market/internal/journal"
	"market/internal/model"
	"market/internal/model/enum"
	"market/internal/orderbook"
	"market/internal/rpc"
)

func main() {
	if err := run(); err != nil {
		log.Printf("replay: %v", err)
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "", "Journal file (default: newest <prefix>_*.bin in -dir)")
	dir := flag.String("dir", ".", "Directory searched when -file is empty")
	prefix := flag.String("prefix", "replay", "Journal file prefix")
	symbol := flag.String("symbol", "AAPL", "Ticker of the rebuilt book")
	verbose := flag.Bool("print", false, "Print every record")
	scale := flag.Int("price-scale", 0, "Decimals used when printing prices")
	flag.Parse()

	path := *file
	if path == "" {
		latest, err := journal.Latest(*dir, *prefix)
		if err != nil {
			return err
		}
		path = latest
	}

	if *verbose {
		if err := printRecords(path, *scale); err != nil {
			return err
		}
	}

	book := orderbook.New(model.NewSymbol(*symbol))
	table := rpc.NewTable()
	var fills, found int
	engine.RegisterHandlers(table, book, func(o model.CompletedOrder) {
		switch {
		case o.Call.IsPlace() && o.Result.Amount > 0:
			fills++
		case o.Call.IsCancel() && o.Result.Found():
			found++
		}
	})

	n, err := journal.ReplayFile(context.Background(), path, table)
	if err != nil {
		return err
	}

	stats := book.Stats()
	bids, asks := book.Depth()
	bid, ask, hasBid, hasAsk := book.L1()
	fmt.Printf("journal %s: %d calls\n", path, n)
	fmt.Printf("orders %d, cancels %d (%d removed), trades %d, volume %d, crossing placements %d\n",
		stats.OrderCount, stats.CancelCount, found, stats.TradeCount, stats.Volume, fills)
	fmt.Printf("resting bids %d, asks %d\n", bids, asks)
	if hasBid {
		fmt.Printf("best bid %s x %d (id %d)\n", model.FormatPrice(bid.Price, *scale), bid.Quantity, bid.ID)
	}
	if hasAsk {
		fmt.Printf("best ask %s x %d (id %d)\n", model.FormatPrice(ask.Price, *scale), ask.Quantity, ask.ID)
	}
	if r, ok := stats.OrderToTradeRatio(); ok {
		fmt.Printf("order/trade %.2f\n", r)
	}
	if v, ok := stats.VolumePerTrade(); ok {
		fmt.Printf("volume/trade %.2f\n", v)
	}
	return nil
}

func printRecords(path string, scale int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := journal.NewReader(f)
	for index := 1; ; index++ {
		call, e, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if call.IsCancel() {
			fmt.Printf("%06d %-15s id=%d\n", index, call, e.ID)
			continue
		}
		fmt.Printf("%06d %-15s id=%d time=%d price=%s qty=%d type=%s symbol=%s\n",
			index, call, e.ID, e.Time, model.FormatPrice(e.Price, scale), e.Quantity, orderType(e.Type), e.Symbol)
	}
}

func orderType(t enum.OrderType) string {
	if !t.IsAvailable() {
		return fmt.Sprintf("Unknown(%d)", t)
	}
	return t.String()
}
