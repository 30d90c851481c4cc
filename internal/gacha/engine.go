package gacha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/errs"
)

var (
	ErrInvalidCount = errors.New("count must be >= 1")
	ErrUnknownBox   = errors.New("unknown box")
)

// DrawRequest describes one scout. It is built per command and used once.
type DrawRequest struct {
	Box            Box
	Count          int
	GuaranteedRare bool
	Filter         card.Filter
}

// Engine turns draw requests into card lists.
//
// An Engine is safe for concurrent use only when its RandomSource is.
type Engine struct {
	active atomic.Pointer[ratesState]
	pool   card.Pool
	rng    RandomSource
	logger *slog.Logger
}

// ratesState pairs a book with its samplers. It is swapped as a whole.
type ratesState struct {
	book     RateBook
	samplers map[Box]*Sampler
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine validates book and builds one sampler per box.
func NewEngine(book RateBook, pool card.Pool, rng RandomSource, opts ...Option) (*Engine, error) {
	if err := book.Validate(); err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, errors.New("card pool is required")
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	e := &Engine{
		pool:   pool,
		rng:    rng,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	e.active.Store(newRatesState(book))
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Reload swaps in a new rate book. Draws already in flight keep the tables
// they started with. An invalid book is rejected and the old one stays.
func (e *Engine) Reload(book RateBook) error {
	if err := book.Validate(); err != nil {
		return err
	}
	e.active.Store(newRatesState(book))
	e.logger.Info("rate book reloaded", "boxes", len(book))
	return nil
}

func newRatesState(book RateBook) *ratesState {
	st := &ratesState{book: book.Clone(), samplers: make(map[Box]*Sampler, len(book))}
	for box, t := range st.book {
		st.samplers[box] = NewSampler(t)
	}
	return st
}

// Table returns a copy of the table the engine currently draws box with.
func (e *Engine) Table(box Box) (RarityTable, error) {
	t, ok := e.active.Load().book[box]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBox, box)
	}
	return maps.Clone(t), nil
}

// Rarities builds the rarity label of every slot, before any pool lookup.
func (e *Engine) Rarities(req DrawRequest) ([]card.Rarity, error) {
	if req.Count < 1 {
		return nil, ErrInvalidCount
	}
	s, ok := e.active.Load().samplers[req.Box]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBox, req.Box)
	}

	out := make([]card.Rarity, 0, req.Count)
	switch {
	case req.GuaranteedRare && req.Count > 1:
		rare := false
		for i := 0; i < req.Count-1; i++ {
			r := s.Roll(e.rng.Float64(), false)
			if r >= card.SR {
				rare = true
			}
			out = append(out, r)
		}
		out = append(out, s.Roll(e.rng.Float64(), !rare))

	case req.Box == BoxRegular && req.Filter.Constrains(card.DimName):
		// Farming a named character ignores tiers.
		for i := 0; i < req.Count; i++ {
			out = append(out, card.N)
		}

	default:
		for i := 0; i < req.Count; i++ {
			out = append(out, s.Roll(e.rng.Float64(), false))
		}
	}
	return out, nil
}

// Draw resolves req into exactly req.Count cards.
//
// Per-rarity pool queries run concurrently. Padding, the flip pass and the
// final shuffle run once every bucket has returned. A bucket with no
// matching card fails the whole draw with errs.ErrPoolExhausted.
func (e *Engine) Draw(ctx context.Context, req DrawRequest) ([]card.Card, error) {
	rarities, err := e.Rarities(req)
	if err != nil {
		return nil, err
	}
	var want [len(rarityOrder)]int
	for _, r := range rarities {
		want[r]++
	}

	var got [len(rarityOrder)][]card.Card
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range rarityOrder {
		k := want[r]
		if k == 0 {
			continue
		}
		g.Go(func() error {
			cards, err := e.pool.Sample(gctx, req.Filter, r, k)
			if err != nil {
				return fmt.Errorf("sample %s x%d: %w", r, k, err)
			}
			got[r] = cards
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]card.Card, 0, req.Count)
	for _, r := range rarityOrder {
		k := want[r]
		if k == 0 {
			continue
		}
		if len(got[r]) == 0 {
			return nil, fmt.Errorf("%w: box %s rarity %s", errs.ErrPoolExhausted, req.Box, r)
		}
		if len(got[r]) < k {
			e.logger.Debug("padding short bucket", "box", req.Box, "rarity", r, "got", len(got[r]), "want", k)
		}
		bucket := padBucket(got[r], k, e.rng)
		flipBucket(bucket, e.rng)
		out = append(out, bucket...)
	}

	shuffle(out, e.rng)
	if len(out) != req.Count {
		e.logger.Error("draw size mismatch", "box", req.Box, "got", len(out), "want", req.Count)
		return nil, fmt.Errorf("%w: got %d of %d cards", errs.ErrIntegrity, len(out), req.Count)
	}
	return out, nil
}

// rarityOrder is the fixed bucket concatenation order.
var rarityOrder = [...]card.Rarity{card.N, card.R, card.SR, card.SSR, card.UR}
