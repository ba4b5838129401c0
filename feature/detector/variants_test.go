package detector

import (
	"errors"
	"testing"

	"stash-ingest/core/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingsOf(items ...feed.Item) []Listing {
	out := make([]Listing, len(items))
	for i := range items {
		out[i] = Listing{Note: "~b/o 1 chaos", Item: &items[i]}
	}
	return out
}

func ids(ls []Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Item.ID
	}
	return out
}

func TestVariants(t *testing.T) {
	items := listingsOf(
		feed.Item{ID: "u1", Name: "Headhunter", BaseType: "Leather Belt", Rarity: "Unique", Identified: true},
		feed.Item{ID: "u2", Name: "Mageblood", BaseType: "Heavy Belt", Rarity: "Unique", Identified: true, MutatedMods: []string{"+1 to Level of all Spell Skills"}},
		feed.Item{ID: "u3", BaseType: "Leather Belt", Rarity: "Unique", Identified: false},
		feed.Item{ID: "u4", Name: "Legacy", BaseType: "Studded Belt", FrameType: 3, Identified: true},
		feed.Item{ID: "r1", Name: "Doom Clasp", BaseType: "Leather Belt", Rarity: "Rare", Identified: true},
		feed.Item{ID: "i1", Name: "Idol", BaseType: "Minor Idol", Rarity: "Magic", Identified: true, Extended: &feed.Extended{Category: "idol"}},
		feed.Item{ID: "i2", BaseType: "Kamasan Idol", Rarity: "Magic", Identified: true, Extended: &feed.Extended{Category: "Idol"}},
		feed.Item{ID: "i3", BaseType: "Minor Idol", Rarity: "Magic", Identified: false, Extended: &feed.Extended{Category: "idol"}},
	)

	tests := []struct {
		variant string
		cfg     Config
		want    []string
	}{
		{VariantUnique, Config{}, []string{"u1", "u2", "u4"}},
		{VariantUnique, Config{WantedNames: []string{"Mageblood"}}, []string{"u2"}},
		{VariantUniqueUnidentified, Config{}, []string{"u3"}},
		{VariantUniqueUnidentified, Config{WantedBases: []string{"Heavy Belt"}}, nil},
		{VariantUniqueFoulborn, Config{}, []string{"u2"}},
		{VariantIdol, Config{}, []string{"i1", "i2"}},
		{VariantIdol, Config{ExcludedIdolBases: []string{"Kamasan Idol"}}, []string{"i1"}},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			d, err := NewDetector(tt.variant, tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.variant, d.Name())

			got, err := d.Match(items)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestVariantMissingField(t *testing.T) {
	d, err := NewDetector(VariantIdol, Config{})
	require.NoError(t, err)

	got, err := d.Match(listingsOf(feed.Item{ID: "x", Identified: true}))
	assert.Empty(t, got)

	var mfe *MissingFieldError
	require.True(t, errors.As(err, &mfe))
	assert.Equal(t, "extended", mfe.Field)
	assert.Equal(t, VariantIdol, mfe.Variant)
}

func TestUnknownVariant(t *testing.T) {
	_, err := NewDetector("gem", Config{})
	assert.ErrorContains(t, err, "unknown detector variant")
}
