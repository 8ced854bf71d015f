// Package leaderboard keeps the ranked high score list in a byte store.
//
// Records are laid out contiguously from the base address with no
// header: three name bytes followed by the score, high byte first.
// Slots holding a score outside (0, 9999) are empty.
package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/golang/glog"
	"github.com/samber/lo"
)

// Capacity is the number of records kept.
const Capacity = 10

// ByteStore is byte addressed persistent memory.
type ByteStore interface {
	Get(ctx context.Context, addr uint16) (byte, error)
	Put(ctx context.Context, addr uint16, data byte) error
}

// Board is the ranked record list mirrored in a ByteStore.
// Entries are non-increasing by score and equal scores keep the order
// they were recorded in.
type Board struct {
	Store ByteStore
	Base  uint16

	lock    sync.RWMutex
	entries []Record
}

// New creates an empty board stored at address 0.
func New(store ByteStore) *Board {
	return &Board{Store: store}
}

func (b *Board) slotAddr(slot int) uint16 {
	return b.Base + uint16(slot*RecordSize)
}

// Load reads all slots and keeps the valid records.
func (b *Board) Load(ctx context.Context) error {
	records := make([]Record, 0, Capacity)
	buf := make([]byte, RecordSize)
	for slot := 0; slot < Capacity; slot++ {
		addr := b.slotAddr(slot)
		for i := range buf {
			v, err := b.Store.Get(ctx, addr+uint16(i))
			if err != nil {
				return fmt.Errorf("load slot %d: %w", slot, err)
			}
			buf[i] = v
		}
		r, _ := DecodeRecord(buf)
		records = append(records, r)
	}
	valid := lo.Filter(records, func(r Record, _ int) bool { return r.Valid() })
	if skipped := len(records) - len(valid); skipped > 0 {
		glog.V(2).Infof("leaderboard: %d empty slots", skipped)
	}
	rank(valid)
	b.lock.Lock()
	b.entries = valid
	b.lock.Unlock()
	return nil
}

// Entries returns a snapshot of the ranked records.
func (b *Board) Entries() []Record {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return append([]Record(nil), b.entries...)
}

// Len returns the number of records.
func (b *Board) Len() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.entries)
}

// Qualifies reports whether RecordScore would admit the score.
func (b *Board) Qualifies(score uint16) bool {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.admits(score)
}

func (b *Board) admits(score uint16) bool {
	if !ValidScore(score) {
		return false
	}
	return len(b.entries) < Capacity || score > b.entries[len(b.entries)-1].Score
}

// RecordScore adds a record if it ranks, then writes all records back.
// It returns the rank of the new record, or -1 when the board is full
// and the score does not beat the lowest one.
func (b *Board) RecordScore(ctx context.Context, name Name, score uint16) (int, error) {
	for _, c := range name {
		if c < 'A' || c > 'Z' {
			return -1, ErrInvalidName
		}
	}
	if !ValidScore(score) {
		return -1, ErrScoreOutOfRange
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.admits(score) {
		return -1, nil
	}
	entries := append(make([]Record, 0, Capacity), b.entries...)
	added := Record{Name: name, Score: score}
	if len(entries) < Capacity {
		entries = append(entries, added)
	} else {
		glog.V(2).Infof("leaderboard: %s evicted", entries[len(entries)-1])
		entries[len(entries)-1] = added
	}
	rank(entries)
	if err := b.save(ctx, entries); err != nil {
		return -1, err
	}
	b.entries = entries
	// the new record sorts after existing equal scores
	pos := lo.LastIndexOf(entries, added)
	glog.Infof("leaderboard: %s ranked %d", added, pos+1)
	return pos, nil
}

// Wipe writes empty records into every slot.
func (b *Board) Wipe(ctx context.Context) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if err := b.save(ctx, nil); err != nil {
		return err
	}
	b.entries = nil
	glog.Info("leaderboard wiped")
	return nil
}

// save writes every slot; slots past the records are written empty so
// nothing stale survives a reload.
func (b *Board) save(ctx context.Context, records []Record) error {
	slots := make([]Record, Capacity)
	copy(slots, records)
	for slot, r := range slots {
		addr := b.slotAddr(slot)
		for i, v := range r.Encode() {
			if err := b.Store.Put(ctx, addr+uint16(i), v); err != nil {
				return fmt.Errorf("save slot %d: %w", slot, err)
			}
		}
	}
	return nil
}

func rank(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
}
