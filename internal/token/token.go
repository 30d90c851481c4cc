// Package token prices scouts in the in-game currency.
package token

import "fmt"

// Currency describes what one scout costs. A bundle buys BundleSize draws
// for PerBundle units, e.g. 11 draws for 50 loveca.
type Currency struct {
	Name       string
	PerDraw    int
	PerBundle  int // 0 disables bundles
	BundleSize int
}

// Loveca is the honour scout price: 5 per single, 50 per 11-draw.
var Loveca = Currency{Name: "loveca", PerDraw: 5, PerBundle: 50, BundleSize: 11}

// ForDraws returns the cheapest price of n draws, buying bundles first.
func (c Currency) ForDraws(n int) int {
	if n <= 0 {
		return 0
	}
	if c.PerBundle <= 0 || c.BundleSize <= 1 {
		return n * c.PerDraw
	}
	bundles, rest := n/c.BundleSize, n%c.BundleSize
	return bundles*c.PerBundle + min(rest*c.PerDraw, c.PerBundle)
}

// Format renders an amount with the currency name.
func (c Currency) Format(amount int) string {
	return fmt.Sprintf("%d %s", amount, c.Name)
}
