package modifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"stash-ingest/core/utils"
)

// Kind is the roll kind of a template position.
type Kind int

const (
	KindStatic Kind = iota
	KindNumeric
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	default:
		return "static"
	}
}

// Placeholder marks a rolled value in an effect text.
const Placeholder = "#"

// Template is one catalog row. Rows sharing ModifierID and Effect describe the
// positions of a multi-placeholder modifier, e.g. "Adds # to # Physical Damage".
type Template struct {
	ModifierID int
	Position   int
	Effect     string
	MinRoll    *float64
	MaxRoll    *float64
	// TextRolls are the ordered categories of a text roll.
	TextRolls []string
	// Static is the storage flag; the effect text decides the kind.
	Static bool

	Implicit    bool
	Explicit    bool
	Crafted     bool
	Enchanted   bool
	Delve       bool
	Fractured   bool
	Synthesised bool
	Mutated     bool
	Veiled      bool
	// Unique restricts the template to the unique item of that name.
	Unique string
}

// Kind derives the roll kind from the effect text and the roll data.
func (t *Template) Kind() Kind {
	if !strings.Contains(t.Effect, Placeholder) {
		return KindStatic
	}
	if len(t.TextRolls) > 0 {
		return KindText
	}
	return KindNumeric
}

// Placeholders returns the number of rolled values in the effect.
func (t *Template) Placeholders() int {
	return strings.Count(t.Effect, Placeholder)
}

func (t *Template) scopes() Scope {
	var s Scope
	if t.Implicit || t.Synthesised {
		s |= ScopeImplicit
	}
	if t.Explicit || t.Delve {
		s |= ScopeExplicit
	}
	if t.Crafted {
		s |= ScopeCrafted
	}
	if t.Enchanted {
		s |= ScopeEnchant
	}
	if t.Fractured {
		s |= ScopeFractured
	}
	if t.Mutated {
		s |= ScopeMutated
	}
	if t.Veiled {
		s |= ScopeVeiled
	}
	return s
}

// UnmarshalJSON decodes a storage row leniently: numbers and flags may arrive as
// strings, text rolls as a list or a "|" separated string.
func (t *Template) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var row map[string]any
	if err := dec.Decode(&row); err != nil {
		return fmt.Errorf("decode modifier template: %w", err)
	}

	*t = Template{
		ModifierID:  utils.ToInt(first(row, "modifierId", "modifier_id", "modifier")),
		Position:    utils.ToInt(row["position"]),
		Effect:      strings.TrimSpace(utils.ToString(row["effect"])),
		MinRoll:     utils.ToFloatPtr(first(row, "minRoll", "min_roll")),
		MaxRoll:     utils.ToFloatPtr(first(row, "maxRoll", "max_roll")),
		TextRolls:   textRolls(first(row, "textRolls", "text_rolls")),
		Static:      utils.ToBool(row["static"]),
		Implicit:    utils.ToBool(row["implicit"]),
		Explicit:    utils.ToBool(row["explicit"]),
		Crafted:     utils.ToBool(row["crafted"]),
		Enchanted:   utils.ToBool(first(row, "enchanted", "enchant")),
		Delve:       utils.ToBool(row["delve"]),
		Fractured:   utils.ToBool(row["fractured"]),
		Synthesised: utils.ToBool(first(row, "synthesised", "synthesized")),
		Mutated:     utils.ToBool(first(row, "mutated", "foulborn")),
		Veiled:      utils.ToBool(row["veiled"]),
		Unique:      uniqueName(row["unique"]),
	}
	return nil
}

func first(row map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func textRolls(v any) []string {
	var out []string
	switch rolls := v.(type) {
	case []any:
		for _, r := range rolls {
			if s := strings.TrimSpace(utils.ToString(r)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, s := range strings.Split(rolls, "|") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// uniqueName accepts the unique item name. Boolean markers carry no name.
func uniqueName(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "0", "1", "true", "false":
		return ""
	}
	return s
}
