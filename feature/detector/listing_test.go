package detector

import (
	"testing"

	"stash-ingest/core/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		note     string
		ok       bool
		mode     string
		amount   float64
		currency string
	}{
		{"~b/o 5 chaos", true, "b/o", 5, "chaos"},
		{"~price 2.5 divine", true, "price", 2.5, "divine"},
		{"~b/o 1/2 Divine", true, "b/o", 0.5, "divine"},
		{"  ~price 10 exalted extra words", true, "price", 10, "exalted"},
		{"~b/o 0 chaos", false, "", 0, ""},
		{"~b/o 1/0 chaos", false, "", 0, ""},
		{"~b/o chaos", false, "", 0, ""},
		{"b/o 5 chaos", false, "", 0, ""},
		{"~skip", false, "", 0, ""},
		{"", false, "", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.note, func(t *testing.T) {
			p, ok := ParsePrice(tt.note)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.mode, p.Mode)
			assert.InDelta(t, tt.amount, p.Amount, 1e-9)
			assert.Equal(t, tt.currency, p.Currency)
		})
	}
}

func TestGeneralFilter(t *testing.T) {
	stashes := []feed.Stash{
		{
			ID: "s1", AccountName: "alice", Name: "~price 3 chaos", Public: true, League: "Settlers",
			Items: []feed.Item{
				{ID: "a", Note: "~b/o 1 divine"},
				{ID: "b"}, // inherits the stash price
				{ID: "c", Note: "~b/o 1 divine", LockedToCharacter: true},
				{ID: "d", Note: "~b/o 1 divine", LockedToAccount: true},
				{ID: "e", Note: "not for sale"},
			},
		},
		{ID: "s2", Name: "~price 3 chaos", Public: false, League: "Settlers", Items: []feed.Item{{ID: "f"}}},
		{ID: "s3", Name: "~price 3 chaos", Public: true, League: "Standard", Items: []feed.Item{{ID: "g"}}},
		{ID: "s4", Name: "dump", Public: true, League: "Settlers", Items: []feed.Item{{ID: "h"}}},
	}

	t.Run("LeagueRestricted", func(t *testing.T) {
		got := GeneralFilter(Config{Leagues: []string{"Settlers"}}, stashes)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Item.ID)
		assert.Equal(t, "~b/o 1 divine", got[0].Note)
		assert.Equal(t, "divine", got[0].Price.Currency)
		assert.Equal(t, "b", got[1].Item.ID)
		assert.Equal(t, "~price 3 chaos", got[1].Note)
		assert.Equal(t, "alice", got[1].AccountName)
		assert.Equal(t, "s1", got[1].StashID)
	})

	t.Run("AnyLeague", func(t *testing.T) {
		got := GeneralFilter(Config{}, stashes)
		require.Len(t, got, 3)
		assert.Equal(t, "g", got[2].Item.ID)
	})
}
