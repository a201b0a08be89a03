// Package history keeps past question/answer pairs grouped by calendar day.
//
// The whole index is written back to the store after every mutation. A failed
// write leaves the in-memory index intact for the rest of the session.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"tekai/internal/storage"
)

// DayLayout renders a day key, e.g. "Sun Oct 18 2026".
const DayLayout = "Mon Jan 02 2006"

// DisplayLen is the width a question is truncated to in the sidebar.
const DisplayLen = 20

const ellipsis = "..."

type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Entry struct {
	Date      string `json:"date"`
	Questions []Pair `json:"questions"`
}

// Index is ordered newest day first; inside a day the newest pair comes first.
type Index struct {
	mu      sync.RWMutex
	store   storage.Store
	entries []Entry
}

// New returns an empty index persisted to store. A nil store keeps the index in memory only.
func New(store storage.Store) *Index {
	return &Index{store: store}
}

// Load reads the index from store. A missing key yields an empty index.
// On a decode failure the returned index is empty and usable, and the error reports why.
func Load(ctx context.Context, store storage.Store) (*Index, error) {
	x := New(store)
	if store == nil {
		return x, nil
	}
	raw, err := store.Get(ctx, storage.KeyHistory)
	if errors.Is(err, storage.ErrNotFound) {
		return x, nil
	}
	if err != nil {
		return x, fmt.Errorf("read history: %w", err)
	}
	entries, err := Decode(raw)
	if err != nil {
		return x, err
	}
	x.entries = entries
	return x, nil
}

func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// Record files the pair under the day of when and persists the index.
func (x *Index) Record(ctx context.Context, question, answer string, when time.Time) error {
	day := DayKey(when)
	pair := Pair{Question: question, Answer: answer}

	x.mu.Lock()
	found := false
	for i := range x.entries {
		if x.entries[i].Date == day {
			x.entries[i].Questions = append([]Pair{pair}, x.entries[i].Questions...)
			found = true
			break
		}
	}
	if !found {
		x.entries = append([]Entry{{Date: day, Questions: []Pair{pair}}}, x.entries...)
	}
	raw, err := Encode(x.entries)
	x.mu.Unlock()

	if err != nil {
		return err
	}
	return x.persist(ctx, raw)
}

func (x *Index) persist(ctx context.Context, raw []byte) error {
	if x.store == nil {
		return nil
	}
	if err := x.store.Set(ctx, storage.KeyHistory, raw); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Entries returns a deep copy of the index.
func (x *Index) Entries() []Entry {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return cloneEntries(x.entries)
}

// Day returns the entry for a day key.
func (x *Index) Day(day string) (Entry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	for _, e := range x.entries {
		if e.Date == day {
			return cloneEntries([]Entry{e})[0], true
		}
	}
	return Entry{}, false
}

// Seq is the position of the question-th pair of e counted from the oldest
// pair of its day. Later Records do not change it.
func Seq(e Entry, question int) int {
	return len(e.Questions) - 1 - question
}

// Find addresses a pair by day key and Seq.
func (x *Index) Find(day string, seq int) (Pair, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	for _, e := range x.entries {
		if e.Date != day {
			continue
		}
		if seq < 0 || seq >= len(e.Questions) {
			return Pair{}, false
		}
		return e.Questions[Seq(e, seq)], true
	}
	return Pair{}, false
}

// Len reports the number of recorded pairs across all days.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	n := 0
	for _, e := range x.entries {
		n += len(e.Questions)
	}
	return n
}

// Label names a day relative to now. Yesterday is now minus a fixed 24 hours.
func Label(day string, now time.Time) string {
	switch day {
	case DayKey(now):
		return "Today"
	case DayKey(now.Add(-24 * time.Hour)):
		return "Yesterday"
	default:
		return day
	}
}

// Truncate shortens q to maxLen runes, ending in "..." when cut.
func Truncate(q string, maxLen int) string {
	r := []rune(q)
	if len(r) <= maxLen {
		return q
	}
	keep := maxLen - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	return string(r[:keep]) + ellipsis
}

func Encode(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return raw, nil
}

func Decode(raw []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}

func cloneEntries(in []Entry) []Entry {
	out := make([]Entry, len(in))
	for i, e := range in {
		out[i] = Entry{Date: e.Date, Questions: append([]Pair(nil), e.Questions...)}
	}
	return out
}
