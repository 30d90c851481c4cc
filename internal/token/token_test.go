package token

import "testing"

func TestForDraws(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{-3, 0},
		{1, 5},
		{10, 50},
		{11, 50},
		{12, 55},
		{22, 100},
		{33, 150},
	}
	for _, tt := range tests {
		if got := Loveca.ForDraws(tt.n); got != tt.want {
			t.Errorf("ForDraws(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestForDrawsWithoutBundles(t *testing.T) {
	c := Currency{Name: "ticket", PerDraw: 1}
	if got := c.ForDraws(11); got != 11 {
		t.Fatalf("ForDraws(11) = %d", got)
	}
	if got := c.Format(3); got != "3 ticket" {
		t.Fatalf("Format = %q", got)
	}
}
