package modifier

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// numericPattern captures a signed decimal roll.
const numericPattern = `([+-]?\d+(?:\.\d+)?)`

// polarityWords flip the sign of a roll. The catalog stores the canonical word.
var polarityWords = regexp.MustCompile(`\b(increased|reduced|more|less)\b`)

var polarityAlternation = map[string]string{
	"increased": `(increased|reduced)`,
	"reduced":   `(increased|reduced)`,
	"more":      `(more|less)`,
	"less":      `(more|less)`,
}

type captureKind int

const (
	captureNumeric captureKind = iota
	captureText
	capturePolarity
)

// capture describes one regex group of a compiled template.
type capture struct {
	kind captureKind
	// tmpl is the position the group fills; nil for polarity words.
	tmpl *Template
	// negated is set when a literal "-" before the placeholder was absorbed.
	negated bool
	// canonical is the catalog's polarity word.
	canonical string
	// index maps a text roll to its category position.
	index map[string]int
}

// group is a compiled dynamic modifier: every position of one (modifier, effect).
type group struct {
	modifierID int
	effect     string
	unique     string
	scopes     Scope
	positions  []*Template
	re         *regexp.Regexp
	captures   []capture
	// literal is the effect length without placeholders; longer is more specific.
	literal int
	// hint is a literal fragment every matching text contains.
	hint string
}

// staticEntry is a template matched by exact text.
type staticEntry struct {
	tmpl   *Template
	scopes Scope
}

// TemplateError reports a catalog entry that could not be compiled. The entry is skipped.
type TemplateError struct {
	ModifierID int
	Effect     string
	Reason     string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("modifier %d %q: %s", e.ModifierID, e.Effect, e.Reason)
}

// Matcher is an immutable compiled catalog.
type Matcher struct {
	static  map[string][]staticEntry
	dynamic []*group
	// Templates is the number of catalog rows compiled.
	Templates int
	// BuiltAt is the compile time.
	BuiltAt time.Time
}

// Static returns the number of distinct static texts.
func (m *Matcher) Static() int { return len(m.static) }

// Dynamic returns the number of compiled dynamic modifiers.
func (m *Matcher) Dynamic() int { return len(m.dynamic) }

// Empty reports whether nothing could be compiled.
func (m *Matcher) Empty() bool { return len(m.static) == 0 && len(m.dynamic) == 0 }

type groupKey struct {
	modifierID int
	effect     string
}

// Compile builds a Matcher from catalog rows.
//
// Rows without placeholder are matched by exact text. Rows with placeholders are
// grouped by (modifier, effect) into one anchored regular expression capturing each
// position in textual order, and ordered by literal length descending so that the most
// specific template is tried first. Inconsistent groups are skipped and reported.
func Compile(templates []Template) (*Matcher, []error) {
	m := &Matcher{static: make(map[string][]staticEntry), BuiltAt: time.Now().UTC()}
	var errs []error

	groups := make(map[groupKey][]*Template)
	var order []groupKey

	for i := range templates {
		t := &templates[i]
		if t.Effect == "" {
			errs = append(errs, &TemplateError{ModifierID: t.ModifierID, Reason: "empty effect"})
			continue
		}
		m.Templates++

		if t.Kind() == KindStatic {
			m.static[t.Effect] = append(m.static[t.Effect], staticEntry{tmpl: t, scopes: t.scopes()})
			continue
		}

		key := groupKey{t.ModifierID, t.Effect}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}

	for text, entries := range m.static {
		sort.SliceStable(entries, func(i, j int) bool {
			return lessSpecific(entries[i].tmpl, entries[j].tmpl)
		})
		m.static[text] = entries
	}

	for _, key := range order {
		g, err := buildGroup(key, groups[key])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.dynamic = append(m.dynamic, g)
	}

	sort.SliceStable(m.dynamic, func(i, j int) bool {
		a, b := m.dynamic[i], m.dynamic[j]
		if a.literal != b.literal {
			return a.literal > b.literal
		}
		if (a.unique != "") != (b.unique != "") {
			return a.unique != ""
		}
		if a.modifierID != b.modifierID {
			return a.modifierID < b.modifierID
		}
		return a.effect < b.effect
	})

	return m, errs
}

// lessSpecific orders same-text static entries: unique-specific first, then by id.
func lessSpecific(a, b *Template) bool {
	if (a.Unique != "") != (b.Unique != "") {
		return a.Unique != ""
	}
	return a.ModifierID < b.ModifierID
}

func buildGroup(key groupKey, rows []*Template) (*group, error) {
	fail := func(format string, args ...any) error {
		return &TemplateError{ModifierID: key.modifierID, Effect: key.effect, Reason: fmt.Sprintf(format, args...)}
	}

	n := strings.Count(key.effect, Placeholder)
	positions := make([]*Template, n)
	for _, t := range rows {
		if t.Position < 0 || t.Position >= n {
			return nil, fail("position %d outside %d placeholders", t.Position, n)
		}
		if positions[t.Position] != nil {
			return nil, fail("duplicate position %d", t.Position)
		}
		positions[t.Position] = t
	}
	for i, t := range positions {
		if t == nil {
			return nil, fail("missing position %d", i)
		}
		if t.Kind() == KindNumeric && (t.MinRoll == nil || t.MaxRoll == nil) {
			return nil, fail("position %d has no roll bounds", i)
		}
	}

	g := &group{
		modifierID: key.modifierID,
		effect:     key.effect,
		unique:     positions[0].Unique,
		positions:  positions,
		literal:    utf8.RuneCountInString(key.effect) - n,
	}
	for _, t := range positions {
		g.scopes |= t.scopes()
	}

	var b strings.Builder
	b.WriteString("^")
	parts := strings.Split(key.effect, Placeholder)
	for i, lit := range parts {
		var next *Template
		if i < n {
			next = positions[i]
		}

		negated := false
		if next != nil && next.Kind() == KindNumeric {
			// The sign in front of a numeric roll is part of the rolled value
			switch {
			case strings.HasSuffix(lit, "+"):
				lit = lit[:len(lit)-1]
			case strings.HasSuffix(lit, "-"):
				lit = lit[:len(lit)-1]
				negated = true
			}
		}

		g.writeLiteral(&b, lit)

		if next == nil {
			continue
		}
		switch next.Kind() {
		case KindText:
			b.WriteString(textAlternation(next.TextRolls))
			idx := make(map[string]int, len(next.TextRolls))
			for ti, r := range next.TextRolls {
				if _, dup := idx[r]; !dup {
					idx[r] = ti
				}
			}
			g.captures = append(g.captures, capture{kind: captureText, tmpl: next, index: idx})
		default:
			b.WriteString(numericPattern)
			g.captures = append(g.captures, capture{kind: captureNumeric, tmpl: next, negated: negated})
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fail("compile: %v", err)
	}
	g.re = re
	return g, nil
}

// writeLiteral escapes a literal segment, turning polarity words into alternations.
func (g *group) writeLiteral(b *strings.Builder, lit string) {
	last := 0
	for _, loc := range polarityWords.FindAllStringIndex(lit, -1) {
		g.addFragment(b, lit[last:loc[0]])
		word := lit[loc[0]:loc[1]]
		b.WriteString(polarityAlternation[word])
		g.captures = append(g.captures, capture{kind: capturePolarity, canonical: word})
		last = loc[1]
	}
	g.addFragment(b, lit[last:])
}

func (g *group) addFragment(b *strings.Builder, frag string) {
	b.WriteString(regexp.QuoteMeta(frag))
	if t := strings.TrimSpace(frag); len(t) > len(g.hint) {
		g.hint = t
	}
}

// textAlternation builds a capture over the categories, longest first.
func textAlternation(rolls []string) string {
	alts := make([]string, len(rolls))
	copy(alts, rolls)
	sort.SliceStable(alts, func(i, j int) bool { return len(alts[i]) > len(alts[j]) })
	for i, a := range alts {
		alts[i] = regexp.QuoteMeta(a)
	}
	return "(" + strings.Join(alts, "|") + ")"
}
