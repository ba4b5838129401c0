package modifier

// Fact is one extracted (template, roll) pair of an item.
type Fact struct {
	ItemID      string
	Fingerprint string
	ModifierID  int
	Position    int
	// OrderID counts earlier facts of the same (snapshot, modifier, position).
	OrderID int
	// Roll is nil for static templates.
	Roll *float64
	// Raw is the value read from the affix before normalisation.
	Raw         *float64
	OutOfBounds bool
	Text        string
	Scope       Scope
}

// Extraction is the outcome of a batch.
type Extraction struct {
	Facts      []Fact
	Mismatches []*CatalogMismatchError
	// OutOfBounds lists the facts whose roll was clamped.
	OutOfBounds []Fact
}

type orderKey struct {
	modifierID int
	position   int
}

// ExtractBatch matches every affix of the batch.
//
// All affixes go through the exact static lookup first; only the remainder is handed
// to the dynamic templates. Facts are emitted in item then affix order.
func (m *Matcher) ExtractBatch(items []ItemAffixes) *Extraction {
	matches := make([][]*Match, len(items))
	for i, it := range items {
		matches[i] = make([]*Match, len(it.Affixes))
		for j, a := range it.Affixes {
			matches[i][j] = m.matchStatic(it, a)
		}
	}

	out := &Extraction{}
	for i, it := range items {
		for j, a := range it.Affixes {
			if matches[i][j] != nil {
				continue
			}
			if res := m.matchDynamic(it, a); res != nil {
				matches[i][j] = res
				continue
			}
			out.Mismatches = append(out.Mismatches, &CatalogMismatchError{ItemID: it.ItemID, Text: a.Text, Scope: a.Scope})
		}
	}

	for i, it := range items {
		seen := make(map[orderKey]int)
		next := func(modifierID, position int) int {
			k := orderKey{modifierID, position}
			n := seen[k]
			seen[k] = n + 1
			return n
		}

		for j, a := range it.Affixes {
			res := matches[i][j]
			if res == nil {
				continue
			}
			if res.Static {
				out.Facts = append(out.Facts, Fact{
					ItemID:      it.ItemID,
					Fingerprint: it.Fingerprint,
					ModifierID:  res.ModifierID,
					Position:    res.Position,
					OrderID:     next(res.ModifierID, res.Position),
					Text:        a.Text,
					Scope:       a.Scope,
				})
				continue
			}
			for _, r := range res.Rolls {
				value, raw := r.Value, r.Raw
				f := Fact{
					ItemID:      it.ItemID,
					Fingerprint: it.Fingerprint,
					ModifierID:  res.ModifierID,
					Position:    r.Position,
					OrderID:     next(res.ModifierID, r.Position),
					Roll:        &value,
					Raw:         &raw,
					OutOfBounds: r.OutOfBounds,
					Text:        a.Text,
					Scope:       a.Scope,
				}
				out.Facts = append(out.Facts, f)
				if f.OutOfBounds {
					out.OutOfBounds = append(out.OutOfBounds, f)
				}
			}
		}
	}
	return out
}
