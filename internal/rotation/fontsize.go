package rotation

// FontTier buckets quote text length so long quotes shrink instead of
// overflowing their panel.
type FontTier string

const (
	FontTierHuge     FontTier = "huge"
	FontTierDefault  FontTier = "default"
	FontTierReduced  FontTier = "reduced"
	FontTierSmall    FontTier = "small"
	FontTierSmallest FontTier = "smallest"
)

// FontTierFor maps a quote's rune count to its display tier. Each
// boundary belongs to the smaller tier: a 50-rune quote is already
// out of the huge bucket.
func FontTierFor(quote string) FontTier {
	n := len([]rune(quote))
	switch {
	case n < 50:
		return FontTierHuge
	case n < 150:
		return FontTierDefault
	case n < 300:
		return FontTierReduced
	case n < 500:
		return FontTierSmall
	default:
		return FontTierSmallest
	}
}
