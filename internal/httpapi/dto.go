package httpapi

type ErrorResponse struct {
	Error string `json:"error"`
}

type CardResponse struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Rarity      string `json:"rarity"`
	Attribute   string `json:"attribute,omitempty"`
	MainUnit    string `json:"main_unit,omitempty"`
	SubUnit     string `json:"sub_unit,omitempty"`
	Year        string `json:"year,omitempty"`
	Image       string `json:"image,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
}

type DrawResponse struct {
	Box       string         `json:"box"`
	Count     int            `json:"count"`
	Cards     []CardResponse `json:"cards"`
	Unique    int            `json:"unique"`
	RequestID string         `json:"request_id,omitempty"`
}

type RatesResponse struct {
	Box   string             `json:"box"`
	Rates map[string]float64 `json:"rates"`
}
