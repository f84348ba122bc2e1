package journal

import (
	"context"
	"fmt"
	"io"
	"os"

	"market/internal/model"
	"market/internal/model/enum"
	"market/internal/rpc"
	"market/pkg/exception"
)

// Frame rebuilds the call frame that produced a record: placements carry
// the entry, cancellations the order id.
func Frame(dst []byte, call enum.Call, e model.OrderEntry) ([]byte, error) {
	switch {
	case call.IsPlace():
		return rpc.AppendFrame(dst, int32(call), e)
	case call.IsCancel():
		return rpc.AppendFrame(dst, int32(call), e.ID)
	default:
		return dst, fmt.Errorf("tag %d: %w", int32(call), exception.ErrJournalUnknownRecord)
	}
}

// Replay feeds every record of r through table and returns how many calls
// were dispatched.
func Replay(ctx context.Context, r io.Reader, table *rpc.Table) (int, error) {
	reader := NewReader(r)
	frame := make([]byte, 0, rpc.MaxFrameSize)
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		call, e, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				return count, nil
			}
			return count, fmt.Errorf("record %d: %w", count, err)
		}
		frame, err = Frame(frame[:0], call, e)
		if err != nil {
			return count, fmt.Errorf("record %d: %w", count, err)
		}
		if table.Call(frame[1:]) {
			count++
		}
	}
}

// ReplayFile opens path and replays it through table.
func ReplayFile(ctx context.Context, path string, table *rpc.Table) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	return Replay(ctx, file, table)
}
