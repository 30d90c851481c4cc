package card

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// MaxSyncBatch bounds how many new cards one sync pass fetches.
const MaxSyncBatch = 15

// Source is an upstream card catalog.
type Source interface {
	CardIDs(ctx context.Context) ([]int, error)
	CardsByID(ctx context.Context, ids []int) ([]Card, error)
}

// Catalog is the local card store kept in step with a Source.
type Catalog interface {
	CardIDs(ctx context.Context) ([]int, error)
	Upsert(ctx context.Context, cards ...Card) error
}

// SyncResult summarises one pass.
type SyncResult struct {
	Missing  int // ids upstream that were absent locally, minus known rejects
	Stored   int
	Rejected int // cards failing Validate in this pass
}

// Syncer copies new cards from a Source into a Catalog.
type Syncer struct {
	src    Source
	dst    Catalog
	logger *slog.Logger
	batch  int

	mu       sync.Mutex
	rejected map[int]struct{} // ids that failed Validate; never fetched again
}

func NewSyncer(src Source, dst Catalog, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Syncer{src: src, dst: dst, logger: logger, batch: MaxSyncBatch, rejected: make(map[int]struct{})}
}

// SyncOnce fetches at most MaxSyncBatch unseen cards and stores the valid
// ones. Ids of rejected cards are remembered and skipped by later passes.
func (s *Syncer) SyncOnce(ctx context.Context) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res SyncResult
	remote, err := s.src.CardIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list remote card ids: %w", err)
	}
	local, err := s.dst.CardIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list local card ids: %w", err)
	}
	have := make(map[int]struct{}, len(local))
	for _, id := range local {
		have[id] = struct{}{}
	}
	var missing []int
	for _, id := range remote {
		if _, ok := have[id]; ok {
			continue
		}
		if _, ok := s.rejected[id]; ok {
			continue
		}
		missing = append(missing, id)
	}
	res.Missing = len(missing)
	if len(missing) == 0 {
		return res, nil
	}
	slices.Sort(missing)
	if len(missing) > s.batch {
		missing = missing[:s.batch]
	}

	cards, err := s.src.CardsByID(ctx, missing)
	if err != nil {
		return res, fmt.Errorf("fetch cards: %w", err)
	}
	valid := make([]Card, 0, len(cards))
	for _, c := range cards {
		if err := c.Validate(); err != nil {
			s.logger.Warn("skipping card", "id", c.ID, "error", err)
			s.rejected[c.ID] = struct{}{}
			res.Rejected++
			continue
		}
		valid = append(valid, c)
	}
	if err := s.dst.Upsert(ctx, valid...); err != nil {
		return res, fmt.Errorf("store cards: %w", err)
	}
	res.Stored = len(valid)
	return res, nil
}

// Run calls SyncOnce every interval until ctx is done. Pass failures are
// logged and the loop continues.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s.logger.Info("updating cards list")
		res, err := s.SyncOnce(ctx)
		if err != nil {
			s.logger.Error("card sync failed", "error", err)
		} else {
			s.logger.Info("card sync done", "missing", res.Missing, "stored", res.Stored, "rejected", res.Rejected)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
