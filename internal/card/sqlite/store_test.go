package sqlite

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/xtding233/gacha-scout/internal/card"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "cards.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	cards := []card.Card{
		{ID: 1, Name: "Kousaka Honoka", Rarity: card.N, MainUnit: "μ's", Attribute: "Smile", Thumbnail: "//x/1.png", Image: "//x/1f.png"},
		{ID: 2, Name: "Sonoda Umi", Rarity: card.SR, MainUnit: "μ's", Attribute: "Cool", Thumbnail: "//x/2.png", Image: "//x/2f.png"},
		{ID: 3, Name: "Kurosawa Dia", Rarity: card.SR, MainUnit: "Aqours", Attribute: "Cool", Thumbnail: "//x/3.png", Image: "//x/3f.png"},
		{ID: 4, Name: "Sonoda Umi", Rarity: card.UR, MainUnit: "μ's", Attribute: "Pure", IdolizedThumbnail: "//x/4i.png", IdolizedImage: "//x/4fi.png"},
	}
	if err := s.Upsert(context.Background(), cards...); err != nil {
		t.Fatalf("upsert: %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cards.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestUpsertRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	seed(t, s)

	ids, err := s.CardIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, []int{1, 2, 3, 4}) {
		t.Fatalf("ids = %v", ids)
	}

	got, err := s.Get(context.Background(), 4, 99)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Rarity != card.UR || got[0].IdolizedThumbnail != "//x/4i.png" {
		t.Fatalf("get = %+v", got)
	}

	updated := got[0]
	updated.Attribute = "Cool"
	if err := s.Upsert(context.Background(), updated); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Get(context.Background(), 4)
	if got[0].Attribute != "Cool" {
		t.Fatalf("attribute = %q after upsert", got[0].Attribute)
	}
}

func TestSampleFiltersByRarityAndDimensions(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	seed(t, s)
	ctx := context.Background()

	got, err := s.Sample(ctx, nil, card.SR, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("SR sample = %d cards", len(got))
	}

	f := card.Filter{}
	f.Add(card.DimMainUnit, "μ's")
	f.Add(card.DimRarity, "UR")
	got, err = s.Sample(ctx, f, card.SR, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("filtered sample = %+v", got)
	}

	f = card.Filter{}
	f.Add(card.DimAttribute, "Cool", "Pure")
	f.Add(card.DimName, "Sonoda Umi")
	got, err = s.Sample(ctx, f, card.UR, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 4 {
		t.Fatalf("multi-value sample = %+v", got)
	}

	got, err = s.Sample(ctx, nil, card.SSR, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("SSR sample = %+v", got)
	}
}

func TestSampleHonoursLimitWithoutRepeats(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	seed(t, s)
	got, err := s.Sample(context.Background(), nil, card.SR, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d cards, want 1", len(got))
	}
	if u := card.Unique(got); len(u) != len(got) {
		t.Fatal("sample contains repeats")
	}
}

func TestSampleRespectsCancelledContext(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Sample(ctx, nil, card.N, 1); err == nil {
		t.Fatal("expected context error")
	}
}
