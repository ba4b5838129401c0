package modifier

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateUnmarshal(t *testing.T) {
	data := `[
	  {"modifierId": 7, "position": 1, "effect": "Adds # to # Physical Damage", "minRoll": "1", "maxRoll": 40, "explicit": 1},
	  {"modifierId": "12", "position": "0", "effect": "# Resistance", "textRolls": ["Fire", "Cold"], "implicit": "true"},
	  {"modifierId": 13, "position": 0, "effect": "Grants #", "textRolls": "Onslaught|Phasing", "unique": "Berek's Grip"},
	  {"modifierId": 14, "effect": "Cannot be Frozen", "static": true, "unique": true, "minRoll": null}
	]`

	var rows []Template
	require.NoError(t, json.Unmarshal([]byte(data), &rows))
	require.Len(t, rows, 4)

	assert.Equal(t, 7, rows[0].ModifierID)
	assert.Equal(t, 1, rows[0].Position)
	require.NotNil(t, rows[0].MinRoll)
	assert.Equal(t, 1.0, *rows[0].MinRoll)
	assert.Equal(t, 40.0, *rows[0].MaxRoll)
	assert.True(t, rows[0].Explicit)
	assert.Equal(t, KindNumeric, rows[0].Kind())
	assert.Equal(t, 2, rows[0].Placeholders())

	assert.Equal(t, 12, rows[1].ModifierID)
	assert.Equal(t, []string{"Fire", "Cold"}, rows[1].TextRolls)
	assert.True(t, rows[1].Implicit)
	assert.Equal(t, KindText, rows[1].Kind())

	assert.Equal(t, []string{"Onslaught", "Phasing"}, rows[2].TextRolls)
	assert.Equal(t, "Berek's Grip", rows[2].Unique)

	assert.Equal(t, KindStatic, rows[3].Kind())
	assert.Nil(t, rows[3].MinRoll)
	assert.Equal(t, "", rows[3].Unique)
}

func TestScopeAccepts(t *testing.T) {
	assert.True(t, Scope(0).accepts(ScopeImplicit))
	assert.True(t, ScopeExplicit.accepts(ScopeExplicit))
	assert.True(t, ScopeExplicit.accepts(ScopeFractured))
	assert.True(t, ScopeExplicit.accepts(ScopeCrafted))
	assert.False(t, ScopeExplicit.accepts(ScopeImplicit))
	assert.False(t, ScopeImplicit.accepts(ScopeEnchant))
	assert.Equal(t, "implicit|explicit", (ScopeImplicit | ScopeExplicit).String())
	assert.Equal(t, "any", Scope(0).String())
}
