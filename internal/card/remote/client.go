// Package remote talks to the public card API.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/errs"
)

const DefaultBaseURL = "https://schoolido.lu/api"

// Client implements card.Pool and card.Source over the card API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

var (
	_ card.Pool   = (*Client)(nil)
	_ card.Source = (*Client)(nil)
)

func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// apiCard mirrors one entry of the API "results" array.
type apiCard struct {
	ID   int `json:"id"`
	Idol struct {
		Name     string `json:"name"`
		MainUnit string `json:"main_unit"`
		SubUnit  string `json:"sub_unit"`
		Year     string `json:"year"`
	} `json:"idol"`
	Rarity                 string `json:"rarity"`
	Attribute              string `json:"attribute"`
	ReleaseDate            string `json:"release_date"`
	CardImage              string `json:"card_image"`
	CardIdolizedImage      string `json:"card_idolized_image"`
	RoundCardImage         string `json:"round_card_image"`
	RoundCardIdolizedImage string `json:"round_card_idolized_image"`
}

type cardPage struct {
	Results []apiCard `json:"results"`
}

// queryParams maps filter dimensions to API query keys.
var queryParams = map[card.Dimension]string{
	card.DimName:      "name",
	card.DimMainUnit:  "idol_main_unit",
	card.DimSubUnit:   "idol_sub_unit",
	card.DimYear:      "idol_year",
	card.DimAttribute: "attribute",
}

// Sample asks the API for count random non-promo cards of rarity r matching f.
// Cards failing Validate or f are left out, so fewer than count may return.
func (c *Client) Sample(ctx context.Context, f card.Filter, r card.Rarity, count int) ([]card.Card, error) {
	if count <= 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("rarity", r.String())
	q.Set("ordering", "random")
	q.Set("is_promo", "False")
	q.Set("is_special", "False")
	q.Set("page_size", strconv.Itoa(count))
	for _, d := range card.Dimensions {
		key, ok := queryParams[d]
		vs := f.Values(d)
		if !ok || len(vs) == 0 {
			continue
		}
		if d == card.DimMainUnit {
			vs = normalizeUnits(vs)
		}
		q.Set(key, strings.Join(vs, ","))
	}

	var page cardPage
	if err := c.getJSON(ctx, "/cards/", q, &page); err != nil {
		return nil, err
	}
	cards, err := convert(page.Results)
	if err != nil {
		return nil, err
	}
	return c.keep(cards, f, r), nil
}

// keep drops cards that break the image invariant or slip past f. The
// bucket rarity replaces any rarity values in f.
func (c *Client) keep(cards []card.Card, f card.Filter, r card.Rarity) []card.Card {
	want := f.Clone()
	want[card.DimRarity] = []string{r.String()}
	if vs := want.Values(card.DimMainUnit); len(vs) > 0 {
		want[card.DimMainUnit] = normalizeUnits(vs)
	}
	out := cards[:0]
	for _, cd := range cards {
		if err := cd.Validate(); err != nil {
			c.logger.Warn("dropping card", "id", cd.ID, "error", err)
			continue
		}
		if !want.Matches(cd) {
			c.logger.Warn("dropping card outside filter", "id", cd.ID)
			continue
		}
		out = append(out, cd)
	}
	return out
}

// CardIDs lists every card id the API knows about.
func (c *Client) CardIDs(ctx context.Context) ([]int, error) {
	var ids []int
	if err := c.getJSON(ctx, "/cardids/", nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// CardsByID fetches the given cards in one request.
func (c *Client) CardsByID(ctx context.Context, ids []int) ([]card.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	q := url.Values{}
	q.Set("ids", strings.Join(parts, ","))
	q.Set("page_size", strconv.Itoa(len(ids)))

	var page cardPage
	if err := c.getJSON(ctx, "/cards/", q, &page); err != nil {
		return nil, err
	}
	return convert(page.Results)
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", errs.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WarnContext(ctx, "card api error", "url", u, "status", resp.StatusCode)
		return fmt.Errorf("%w: upstream status %d: %s", errs.ErrTransport, resp.StatusCode, truncate(body, 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", errs.ErrTransport, err)
	}
	return nil
}

func convert(in []apiCard) ([]card.Card, error) {
	out := make([]card.Card, 0, len(in))
	for _, a := range in {
		r, err := card.ParseRarity(a.Rarity)
		if err != nil {
			return nil, fmt.Errorf("%w: card %d: %w", errs.ErrTransport, a.ID, err)
		}
		out = append(out, card.Card{
			ID:                a.ID,
			Name:              a.Idol.Name,
			Rarity:            r,
			Attribute:         a.Attribute,
			MainUnit:          a.Idol.MainUnit,
			SubUnit:           a.Idol.SubUnit,
			Year:              a.Idol.Year,
			ReleaseDate:       a.ReleaseDate,
			Image:             absURL(a.CardImage),
			IdolizedImage:     absURL(a.CardIdolizedImage),
			Thumbnail:         absURL(a.RoundCardImage),
			IdolizedThumbnail: absURL(a.RoundCardIdolizedImage),
		})
	}
	return out, nil
}

// absURL turns protocol-relative image links into https ones.
func absURL(s string) string {
	if strings.HasPrefix(s, "//") {
		return "https:" + s
	}
	return s
}

// normalizeUnits maps the ASCII unit alias onto the name the API uses.
func normalizeUnits(vs []string) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		if strings.EqualFold(v, "muse") {
			v = "µ's"
		}
		out[i] = v
	}
	return out
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
