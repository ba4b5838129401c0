package modifier

import (
	"fmt"
	"strings"

	"stash-ingest/core/feed"
)

// Scope is the item mod list an affix was read from.
type Scope uint8

const (
	ScopeImplicit Scope = 1 << iota
	ScopeExplicit
	ScopeCrafted
	ScopeEnchant
	ScopeFractured
	ScopeMutated
	ScopeVeiled
)

var scopeNames = []struct {
	scope Scope
	name  string
}{
	{ScopeImplicit, "implicit"},
	{ScopeExplicit, "explicit"},
	{ScopeCrafted, "crafted"},
	{ScopeEnchant, "enchant"},
	{ScopeFractured, "fractured"},
	{ScopeMutated, "mutated"},
	{ScopeVeiled, "veiled"},
}

func (s Scope) String() string {
	var names []string
	for _, n := range scopeNames {
		if s&n.scope != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "any"
	}
	return strings.Join(names, "|")
}

// ParseScope returns the scope named name. An empty name is the explicit scope.
func ParseScope(name string) (Scope, error) {
	if name == "" {
		return ScopeExplicit, nil
	}
	for _, n := range scopeNames {
		if strings.EqualFold(n.name, name) {
			return n.scope, nil
		}
	}
	return 0, fmt.Errorf("unknown affix scope: %s", name)
}

// explicitFamily are the scopes of mods that are explicit mods with extra provenance.
const explicitFamily = ScopeCrafted | ScopeFractured | ScopeMutated | ScopeVeiled

// accepts reports whether templates flagged with s apply to an affix of scope affix.
// Unflagged templates apply everywhere.
func (s Scope) accepts(affix Scope) bool {
	if s == 0 || s&affix != 0 {
		return true
	}
	return affix&explicitFamily != 0 && s&ScopeExplicit != 0
}

// Affix is one affix line of an item.
type Affix struct {
	Text  string
	Scope Scope
}

// ItemAffixes is an item's affixes in display order.
type ItemAffixes struct {
	ItemID string
	// Fingerprint identifies the listing snapshot the affixes were read from.
	Fingerprint string
	// Name is the unique item name, used for unique-specific templates.
	Name    string
	Affixes []Affix
}

// AffixesOf lists an item's affixes: implicit, enchant, explicit, crafted,
// fractured, mutated then veiled.
func AffixesOf(item *feed.Item) ItemAffixes {
	out := ItemAffixes{ItemID: item.ID, Name: item.Name}
	add := func(mods []string, scope Scope) {
		for _, m := range mods {
			if m = strings.TrimSpace(m); m != "" {
				out.Affixes = append(out.Affixes, Affix{Text: m, Scope: scope})
			}
		}
	}
	add(item.ImplicitMods, ScopeImplicit)
	add(item.EnchantMods, ScopeEnchant)
	add(item.ExplicitMods, ScopeExplicit)
	add(item.CraftedMods, ScopeCrafted)
	add(item.FracturedMods, ScopeFractured)
	add(item.MutatedMods, ScopeMutated)
	add(item.VeiledMods, ScopeVeiled)
	return out
}
