package card

import "context"

// Pool samples cards matching a filter at a single rarity.
//
// Sample may return fewer than count cards and returns an empty slice when
// nothing matches. Errors are reserved for transport failures and should
// wrap errs.ErrTransport. The rarity argument takes precedence over any
// value in the filter's rarity dimension.
type Pool interface {
	Sample(ctx context.Context, f Filter, r Rarity, count int) ([]Card, error)
}
