package modifier

import (
	"fmt"
	"strconv"
	"strings"
)

// CatalogMismatchError reports an affix that matched no template. The affix is
// skipped; the item's other affixes are still processed.
type CatalogMismatchError struct {
	ItemID string
	Text   string
	Scope  Scope
}

func (e *CatalogMismatchError) Error() string {
	return fmt.Sprintf("item %s: %s affix %q matches no modifier template", e.ItemID, e.Scope, e.Text)
}

// Roll is the extracted value of one template position.
type Roll struct {
	Position int
	// Raw is the signed numeric value read from the text, or the category index.
	Raw float64
	// Value is the normalised roll in [0,1], or the category index for text rolls.
	Value float64
	// Text is the matched category for text rolls.
	Text string
	// OutOfBounds is set when Raw was outside the template range and got clamped.
	OutOfBounds bool
}

// Match is the template an affix was produced by.
type Match struct {
	ModifierID int
	Effect     string
	Static     bool
	// Position is the matched position of a static template.
	Position int
	// Rolls holds one entry per position, in position order. Empty for static templates.
	Rolls []Roll
}

// Match resolves one affix. Exact static text is tried first, then dynamic templates
// in specificity order. Templates whose scope flags fit the affix are preferred; a
// template with other flags is used only when nothing else matches.
func (m *Matcher) Match(item ItemAffixes, a Affix) (*Match, error) {
	if res := m.matchStatic(item, a); res != nil {
		return res, nil
	}
	if res := m.matchDynamic(item, a); res != nil {
		return res, nil
	}
	return nil, &CatalogMismatchError{ItemID: item.ItemID, Text: a.Text, Scope: a.Scope}
}

func (m *Matcher) matchStatic(item ItemAffixes, a Affix) *Match {
	entries, ok := m.static[a.Text]
	if !ok {
		return nil
	}

	var fallback *Template
	for _, e := range entries {
		if e.tmpl.Unique != "" && e.tmpl.Unique != item.Name {
			continue
		}
		if e.scopes.accepts(a.Scope) {
			return staticMatch(e.tmpl)
		}
		if fallback == nil {
			fallback = e.tmpl
		}
	}
	if fallback != nil {
		return staticMatch(fallback)
	}
	return nil
}

func staticMatch(t *Template) *Match {
	return &Match{ModifierID: t.ModifierID, Effect: t.Effect, Static: true, Position: t.Position}
}

func (m *Matcher) matchDynamic(item ItemAffixes, a Affix) *Match {
	var fallback *Match
	for _, g := range m.dynamic {
		if g.unique != "" && g.unique != item.Name {
			continue
		}
		if !strings.Contains(a.Text, g.hint) {
			continue
		}
		sub := g.re.FindStringSubmatch(a.Text)
		if sub == nil {
			continue
		}
		res := g.extract(sub[1:])
		if g.scopes.accepts(a.Scope) {
			return res
		}
		if fallback == nil {
			fallback = res
		}
	}
	return fallback
}

// extract turns regex groups into rolls.
func (g *group) extract(groups []string) *Match {
	flip := false
	for i, c := range g.captures {
		if c.kind == capturePolarity && groups[i] != c.canonical {
			flip = !flip
		}
	}

	res := &Match{ModifierID: g.modifierID, Effect: g.effect, Rolls: make([]Roll, 0, len(g.positions))}
	for i, c := range g.captures {
		switch c.kind {
		case captureNumeric:
			v, _ := strconv.ParseFloat(groups[i], 64)
			if c.negated {
				v = -v
			}
			if flip {
				v = -v
			}
			norm, oob := Normalize(v, *c.tmpl.MinRoll, *c.tmpl.MaxRoll)
			res.Rolls = append(res.Rolls, Roll{Position: c.tmpl.Position, Raw: v, Value: norm, OutOfBounds: oob})
		case captureText:
			idx := float64(c.index[groups[i]])
			res.Rolls = append(res.Rolls, Roll{Position: c.tmpl.Position, Raw: idx, Value: idx, Text: groups[i]})
		}
	}
	return res
}

// Normalize maps raw into [0,1] as (raw-minRoll)/(maxRoll-minRoll).
//
// A raw value outside the range is clamped and reported out of bounds. A degenerate
// range (minRoll == maxRoll) normalises to 0.0 and is out of bounds only when raw differs.
func Normalize(raw, minRoll, maxRoll float64) (float64, bool) {
	lo, hi := minRoll, maxRoll
	if lo > hi {
		lo, hi = hi, lo
	}

	oob := raw < lo || raw > hi
	clamped := raw
	if clamped < lo {
		clamped = lo
	}
	if clamped > hi {
		clamped = hi
	}

	if hi == lo {
		return 0, oob
	}
	return (clamped - minRoll) / (maxRoll - minRoll), oob
}
