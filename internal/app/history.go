package app

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dkeye/FrontRow/internal/core"
)

const DefaultHistorySize = 256

// Record is one published event as kept for the admin surface.
// To is "*" for a broadcast.
type Record struct {
	Timestamp string          `json:"ts"`
	Type      string          `json:"type"`
	To        string          `json:"to"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// History is a ring buffer of recently published events.
type History struct {
	mu      sync.RWMutex
	size    int
	records []Record
	index   int
	full    bool
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:    size,
		records: make([]Record, size),
	}
}

func (h *History) Add(to string, f core.Frame) {
	w, err := core.Decode(f)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records[h.index] = Record{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Type:      w.Type,
		To:        to,
		Payload:   w.Payload,
	}
	h.index = (h.index + 1) % h.size
	if h.index == 0 {
		h.full = true
	}
}

func (h *History) Snapshot() []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.full {
		return append([]Record{}, h.records[:h.index]...)
	}
	out := make([]Record, 0, h.size)
	out = append(out, h.records[h.index:]...)
	out = append(out, h.records[:h.index]...)
	return out
}

// Recent returns the last n records, optionally only those of one type.
// n <= 0 returns everything that matches.
func (h *History) Recent(n int, typ string) []Record {
	all := h.Snapshot()
	if typ != "" {
		filtered := all[:0]
		for _, r := range all {
			if r.Type == typ {
				filtered = append(filtered, r)
			}
		}
		all = filtered
	}
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = make([]Record, h.size)
	h.index = 0
	h.full = false
}
