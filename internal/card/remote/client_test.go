package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/errs"
)

const samplePage = `{"count": 1, "results": [{
  "id": 42,
  "idol": {"name": "Sonoda Umi", "main_unit": "µ's", "sub_unit": "lily white", "year": "Second"},
  "rarity": "SR",
  "attribute": "Cool",
  "release_date": "2014-03-01",
  "card_image": "//i.schoolido.lu/c/42.png",
  "card_idolized_image": "",
  "round_card_image": "//i.schoolido.lu/r/42.png",
  "round_card_idolized_image": "https://i.schoolido.lu/r/42i.png"
}]}`

func TestSampleBuildsQueryAndDecodes(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, nil)
	f := card.Filter{}
	f.Add(card.DimMainUnit, "Muse")
	f.Add(card.DimAttribute, "Cool", "Pure")
	f.Add(card.DimRarity, "UR")
	cards, err := c.Sample(context.Background(), f, card.SR, 3)
	if err != nil {
		t.Fatal(err)
	}

	if gotPath != "/cards/" {
		t.Fatalf("path = %q", gotPath)
	}
	want := map[string]string{
		"rarity":         "SR",
		"ordering":       "random",
		"is_promo":       "False",
		"is_special":     "False",
		"page_size":      "3",
		"idol_main_unit": "µ's",
		"attribute":      "Cool,Pure",
	}
	for k, v := range want {
		if got := gotQuery[k]; len(got) != 1 || got[0] != v {
			t.Errorf("query %s = %v, want %q", k, got, v)
		}
	}

	if len(cards) != 1 {
		t.Fatalf("cards = %+v", cards)
	}
	got := cards[0]
	if got.ID != 42 || got.Name != "Sonoda Umi" || got.Rarity != card.SR || got.SubUnit != "lily white" {
		t.Fatalf("card = %+v", got)
	}
	if got.Image != "https://i.schoolido.lu/c/42.png" || got.Thumbnail != "https://i.schoolido.lu/r/42.png" {
		t.Fatalf("urls not absolutised: %+v", got)
	}
	if got.IdolizedThumbnail != "https://i.schoolido.lu/r/42i.png" {
		t.Fatalf("absolute url changed: %q", got.IdolizedThumbnail)
	}
}

func TestNon2xxIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client(), srv.URL, nil).Sample(context.Background(), nil, card.R, 1)
	if !errors.Is(err, errs.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	var idsParam string
	mux := http.NewServeMux()
	mux.HandleFunc("/cardids/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1, 2, 42]`))
	})
	mux.HandleFunc("/cards/", func(w http.ResponseWriter, r *http.Request) {
		idsParam = r.URL.Query().Get("ids")
		_, _ = w.Write([]byte(samplePage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/", nil)
	ids, err := c.CardIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, []int{1, 2, 42}) {
		t.Fatalf("ids = %v", ids)
	}

	cards, err := c.CardsByID(context.Background(), []int{42, 7})
	if err != nil {
		t.Fatal(err)
	}
	if idsParam != "42,7" {
		t.Fatalf("ids param = %q", idsParam)
	}
	if len(cards) != 1 || cards[0].ID != 42 {
		t.Fatalf("cards = %+v", cards)
	}
}

func TestBadRarityIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [{"id": 1, "rarity": "LR"}]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client(), srv.URL, nil).Sample(context.Background(), nil, card.R, 1)
	if !errors.Is(err, errs.ErrTransport) {
		t.Fatalf("err = %v", err)
	}
}

func TestSampleDropsInvalidAndOffFilterCards(t *testing.T) {
	const page = `{"count": 3, "results": [
  {"id": 1, "idol": {"name": "Kurosawa Ruby", "main_unit": "Aqours"}, "rarity": "UR", "attribute": "Pure",
   "card_image": "//x/1.png", "round_card_image": ""},
  {"id": 2, "idol": {"name": "Kurosawa Ruby", "main_unit": "Aqours"}, "rarity": "UR", "attribute": "Smile",
   "card_image": "//x/2.png", "round_card_image": "//x/2r.png"},
  {"id": 3, "idol": {"name": "Kurosawa Ruby", "main_unit": "Aqours"}, "rarity": "UR", "attribute": "Pure",
   "card_image": "//x/3.png", "round_card_idolized_image": "//x/3ri.png"}
]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	f := card.Filter{}
	f.Add(card.DimAttribute, "Pure")
	cards, err := NewClient(srv.Client(), srv.URL, nil).Sample(context.Background(), f, card.UR, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 1 || cards[0].ID != 3 {
		t.Fatalf("cards = %+v, want only id 3", cards)
	}
}
