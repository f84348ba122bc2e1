package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Latest returns the most recent journal created by Open in dir, ordered
// by the timestamp and collision sequence in its name.
func Latest(dir, prefix string) (string, error) {
	if prefix == "" {
		prefix = DefaultConfig(dir).FilePrefix
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var (
		best            string
		bestTS, bestSeq int64
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ts, seq, ok := parseName(e.Name(), prefix)
		if !ok {
			continue
		}
		if best == "" || ts > bestTS || (ts == bestTS && seq > bestSeq) {
			best, bestTS, bestSeq = e.Name(), ts, seq
		}
	}
	if best == "" {
		return "", fmt.Errorf("no %s_*.bin journal in %s", prefix, dir)
	}
	return filepath.Join(dir, best), nil
}

// parseName splits "<prefix>_<ts>.bin" or "<prefix>_<ts>-<seq>.bin".
func parseName(name, prefix string) (ts, seq int64, ok bool) {
	rest, found := strings.CutPrefix(name, prefix+"_")
	if !found {
		return 0, 0, false
	}
	rest, found = strings.CutSuffix(rest, ".bin")
	if !found {
		return 0, 0, false
	}
	tsPart, seqPart, hasSeq := strings.Cut(rest, "-")
	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if hasSeq {
		if seq, err = strconv.ParseInt(seqPart, 10, 64); err != nil || seq <= 0 {
			return 0, 0, false
		}
	}
	return ts, seq, true
}
