package card

import "errors"

// Card is one collectible card record as returned by a Pool.
type Card struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Rarity      Rarity `json:"rarity"`
	Attribute   string `json:"attribute"`
	MainUnit    string `json:"main_unit"`
	SubUnit     string `json:"sub_unit"`
	Year        string `json:"year"`
	ReleaseDate string `json:"release_date"`

	// Full-size artwork.
	Image         string `json:"card_image,omitempty"`
	IdolizedImage string `json:"card_idolized_image,omitempty"`

	// Round thumbnails used by the composite grid.
	Thumbnail         string `json:"round_card_image,omitempty"`
	IdolizedThumbnail string `json:"round_card_idolized_image,omitempty"`
}

var (
	ErrNoFullImage = errors.New("card has neither a normal nor an idolized image")
	ErrNoThumbnail = errors.New("card has neither a normal nor an idolized thumbnail")
)

// Validate checks that at least one full image and one thumbnail exist.
func (c Card) Validate() error {
	if c.Image == "" && c.IdolizedImage == "" {
		return ErrNoFullImage
	}
	if c.Thumbnail == "" && c.IdolizedThumbnail == "" {
		return ErrNoThumbnail
	}
	return nil
}

// FullImageURL prefers the normal artwork and falls back to the idolized one.
func (c Card) FullImageURL() string {
	if c.Image != "" {
		return c.Image
	}
	return c.IdolizedImage
}

// ThumbnailURL prefers the normal thumbnail and falls back to the idolized one.
func (c Card) ThumbnailURL() string {
	if c.Thumbnail != "" {
		return c.Thumbnail
	}
	return c.IdolizedThumbnail
}

// Unique drops repeated cards, keeping the first occurrence of each ID.
func Unique(cards []Card) []Card {
	if len(cards) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(cards))
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
