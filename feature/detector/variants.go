package detector

import (
	"fmt"
	"strings"

	"stash-ingest/core/feed"
)

const (
	VariantUnique             = "unique"
	VariantUniqueUnidentified = "unique_unidentified"
	VariantUniqueFoulborn     = "unique_foulborn"
	VariantIdol               = "idol"
)

// Detector selects the listings of one variant.
// Match must not modify the listings it receives; detectors run concurrently.
type Detector interface {
	Name() string
	Match(listings []Listing) ([]Listing, error)
}

// field is a required item field and its presence check.
type field struct {
	name    string
	present func(*feed.Item) bool
}

var (
	fieldRarity = field{"rarity", func(i *feed.Item) bool { return i.Rarity != "" || i.FrameType != 0 }}
	fieldBase   = field{"baseType", func(i *feed.Item) bool { return i.Base() != "" }}
	fieldExt    = field{"extended", func(i *feed.Item) bool { return i.Extended != nil }}
)

// predicate is a detector built from required fields and a per-listing test.
type predicate struct {
	name     string
	requires []field
	test     func(*Listing) bool
}

func (p *predicate) Name() string { return p.name }

func (p *predicate) Match(listings []Listing) ([]Listing, error) {
	if len(listings) == 0 {
		return nil, nil
	}
	for _, f := range p.requires {
		if !anyPresent(listings, f) {
			return nil, &MissingFieldError{Variant: p.name, Field: f.name}
		}
	}

	var out []Listing
	for i := range listings {
		if p.test(&listings[i]) {
			out = append(out, listings[i])
		}
	}
	return out, nil
}

func anyPresent(listings []Listing, f field) bool {
	for i := range listings {
		if f.present(listings[i].Item) {
			return true
		}
	}
	return false
}

// NewDetector builds the named variant.
func NewDetector(name string, cfg Config) (Detector, error) {
	switch name {
	case VariantUnique:
		wanted := toSet(cfg.WantedNames)
		return &predicate{
			name:     name,
			requires: []field{fieldRarity},
			test: func(l *Listing) bool {
				it := l.Item
				return it.IsUnique() && it.Identified && (len(wanted) == 0 || wanted[it.Name])
			},
		}, nil

	case VariantUniqueUnidentified:
		wanted := toSet(cfg.WantedBases)
		return &predicate{
			name:     name,
			requires: []field{fieldRarity, fieldBase},
			test: func(l *Listing) bool {
				it := l.Item
				return it.IsUnique() && !it.Identified && (len(wanted) == 0 || wanted[it.Base()])
			},
		}, nil

	case VariantUniqueFoulborn:
		return &predicate{
			name:     name,
			requires: []field{fieldRarity},
			test: func(l *Listing) bool {
				it := l.Item
				return it.IsUnique() && it.Identified && len(it.MutatedMods) > 0
			},
		}, nil

	case VariantIdol:
		excluded := toSet(cfg.ExcludedIdolBases)
		return &predicate{
			name:     name,
			requires: []field{fieldExt},
			test: func(l *Listing) bool {
				it := l.Item
				return it.Extended != nil &&
					strings.EqualFold(it.Extended.Category, "idol") &&
					it.Identified &&
					!excluded[it.Base()]
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown detector variant: %s", name)
}
