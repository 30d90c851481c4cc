// Package scout turns a draw request into cards and a rendered image.
package scout

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/gacha"
	"github.com/xtding233/gacha-scout/internal/grid"
	"github.com/xtding233/gacha-scout/internal/thumbnail"
)

const tracerName = "github.com/xtding233/gacha-scout/internal/scout"

// Drawer resolves draw requests into cards.
type Drawer interface {
	Draw(ctx context.Context, req gacha.DrawRequest) ([]card.Card, error)
}

// Fetcher returns image bytes for a list of URLs, in order.
type Fetcher interface {
	FetchAll(ctx context.Context, urls []string, limit int) ([][]byte, error)
}

var (
	_ Drawer  = (*gacha.Engine)(nil)
	_ Fetcher = (*thumbnail.Store)(nil)
)

// ScoutOptions tweak how one scout is rendered.
type ScoutOptions struct {
	// Rows overrides the composite row count when positive.
	Rows int
	// Align keeps composite rows left-anchored.
	Align bool
	// Labels overlays rarity and attribute on every tile.
	Labels bool
}

// Result is one finished scout.
type Result struct {
	Cards []card.Card
	// Unique lists each drawn card once, in first-drawn order.
	Unique      []card.Card
	Image       []byte
	Name        string
	ContentType string
}

type Service struct {
	drawer      Drawer
	fetcher     Fetcher
	grid        grid.Options
	parallelism int
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithParallelism bounds concurrent image downloads per scout.
func WithParallelism(n int) Option {
	return func(s *Service) { s.parallelism = n }
}

func WithGridOptions(o grid.Options) Option {
	return func(s *Service) { s.grid = o }
}

func NewService(d Drawer, f Fetcher, opts ...Option) *Service {
	s := &Service{
		drawer:      d,
		fetcher:     f,
		grid:        grid.DefaultOptions(),
		parallelism: thumbnail.DefaultParallelism,
		tracer:      otel.Tracer(tracerName),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scout draws req and renders it. A single card comes back as its
// full-size artwork; several cards come back as a composite of their round
// thumbnails.
func (s *Service) Scout(ctx context.Context, req gacha.DrawRequest, opts ScoutOptions) (_ Result, err error) {
	ctx, span := s.tracer.Start(ctx, "scout.Scout", trace.WithAttributes(
		attribute.String("gacha.box", string(req.Box)),
		attribute.Int("gacha.count", req.Count),
		attribute.Bool("gacha.guaranteed_rare", req.GuaranteedRare),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	cards, err := s.draw(ctx, req)
	if err != nil {
		return Result{}, err
	}

	res := Result{Cards: cards, Unique: card.Unique(cards)}
	if req.Count == 1 {
		res.Image, res.Name, err = s.solo(ctx, cards[0])
	} else {
		res.Image, err = s.composite(ctx, cards, opts)
		res.Name = fmt.Sprintf("%d.png", s.now().UnixMilli())
	}
	if err != nil {
		return Result{}, err
	}
	res.ContentType = http.DetectContentType(res.Image)
	s.logger.InfoContext(ctx, "scout complete", "box", req.Box, "count", req.Count, "unique", len(res.Unique), "bytes", len(res.Image))
	return res, nil
}

func (s *Service) draw(ctx context.Context, req gacha.DrawRequest) ([]card.Card, error) {
	ctx, span := s.tracer.Start(ctx, "scout.draw")
	defer span.End()
	cards, err := s.drawer.Draw(ctx, req)
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *Service) solo(ctx context.Context, c card.Card) ([]byte, string, error) {
	u := c.FullImageURL()
	if u == "" {
		return nil, "", fmt.Errorf("card %d: %w", c.ID, card.ErrNoFullImage)
	}
	imgs, err := s.fetch(ctx, []string{u})
	if err != nil {
		return nil, "", err
	}
	name := u
	if parsed, err := url.Parse(u); err == nil {
		name = path.Base(parsed.Path)
	}
	return imgs[0], name, nil
}

func (s *Service) composite(ctx context.Context, cards []card.Card, opts ScoutOptions) ([]byte, error) {
	urls := make([]string, len(cards))
	for i, c := range cards {
		if urls[i] = c.ThumbnailURL(); urls[i] == "" {
			return nil, fmt.Errorf("card %d: %w", c.ID, card.ErrNoThumbnail)
		}
	}
	imgs, err := s.fetch(ctx, urls)
	if err != nil {
		return nil, err
	}

	tiles := make([]grid.Tile, len(cards))
	for i, c := range cards {
		tiles[i] = grid.Tile{Data: imgs[i]}
		if opts.Labels {
			tiles[i].Labels = labelsFor(c)
			tiles[i].LabelColor = attributeColor(c.Attribute)
		}
	}
	g := s.grid
	if opts.Rows > 0 {
		g.Rows = opts.Rows
	}
	g.Align = opts.Align

	_, span := s.tracer.Start(ctx, "scout.compose", trace.WithAttributes(attribute.Int("grid.tiles", len(tiles))))
	defer span.End()
	return grid.Compose(tiles, g)
}

func (s *Service) fetch(ctx context.Context, urls []string) ([][]byte, error) {
	ctx, span := s.tracer.Start(ctx, "scout.fetch", trace.WithAttributes(attribute.Int("fetch.urls", len(urls))))
	defer span.End()
	return s.fetcher.FetchAll(ctx, urls, s.parallelism)
}

func labelsFor(c card.Card) []string {
	if c.Attribute == "" {
		return []string{c.Rarity.String()}
	}
	return []string{c.Rarity.String(), c.Attribute}
}

var attributeColors = map[string]colorful.Color{
	"Smile": mustHex("#e6006f"),
	"Pure":  mustHex("#20a040"),
	"Cool":  mustHex("#0070d0"),
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// allColor labels support cards that count as every attribute: an even
// blend of the three, mixed in Lab space.
var allColor = attributeColors["Smile"].
	BlendLab(attributeColors["Pure"], 0.5).
	BlendLab(attributeColors["Cool"], 1.0/3).
	Clamped()

func attributeColor(attr string) color.Color {
	if c, ok := attributeColors[attr]; ok {
		return c
	}
	if attr == "All" {
		return allColor
	}
	return grid.DefaultLabelColor
}
