package rotation

import (
	"strings"
	"testing"
)

func TestFontTierFor(t *testing.T) {
	cases := []struct {
		length int
		want   FontTier
	}{
		{0, FontTierHuge},
		{40, FontTierHuge},
		{49, FontTierHuge},
		{50, FontTierDefault},
		{149, FontTierDefault},
		{150, FontTierReduced},
		{200, FontTierReduced},
		{299, FontTierReduced},
		{300, FontTierSmall},
		{499, FontTierSmall},
		{500, FontTierSmallest},
		{1200, FontTierSmallest},
	}
	for _, tc := range cases {
		got := FontTierFor(strings.Repeat("a", tc.length))
		if got != tc.want {
			t.Errorf("length %d: tier = %s, want %s", tc.length, got, tc.want)
		}
	}
}

func TestFontTierForCountsRunes(t *testing.T) {
	// 49 multibyte runes should stay in the huge tier even though the
	// byte length is far larger.
	if got := FontTierFor(strings.Repeat("愛", 49)); got != FontTierHuge {
		t.Fatalf("tier = %s, want %s", got, FontTierHuge)
	}
}
