package detector

import (
	"regexp"
	"strconv"
	"strings"

	"stash-ingest/core/feed"
)

// Price is a parsed trade listing note such as "~b/o 1/2 divine".
type Price struct {
	// Mode is "b/o" (buyout) or "price" (asking price).
	Mode     string
	Amount   float64
	Currency string
}

// Listing is an item offered for trade, with the stash context it was listed in.
type Listing struct {
	AccountName string
	StashID     string
	StashName   string
	League      string
	// Note is the effective price note: the item note, else the stash name.
	Note  string
	Price Price
	Item  *feed.Item
}

var priceNote = regexp.MustCompile(`^~(b/o|price)\s+(\d+(?:\.\d+)?(?:/\d+(?:\.\d+)?)?)\s+([A-Za-z][\w-]*)`)

// ParsePrice parses a trade listing note. Notes that do not follow the
// "~b/o <amount> <currency>" or "~price <amount> <currency>" convention are rejected.
func ParsePrice(note string) (Price, bool) {
	m := priceNote.FindStringSubmatch(strings.TrimSpace(note))
	if m == nil {
		return Price{}, false
	}

	amount, ok := parseAmount(m[2])
	if !ok || amount <= 0 {
		return Price{}, false
	}
	return Price{Mode: m[1], Amount: amount, Currency: strings.ToLower(m[3])}, true
}

func parseAmount(s string) (float64, bool) {
	num, den, isFraction := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	if !isFraction {
		return n, true
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

// GeneralFilter keeps the listings any detector could be interested in: items in
// public stashes of an accepted league, tradeable, with a valid price note.
// Delivery order is preserved.
func GeneralFilter(cfg Config, stashes []feed.Stash) []Listing {
	leagues := toSet(cfg.Leagues)

	var out []Listing
	for si := range stashes {
		s := &stashes[si]
		if !s.Public {
			continue
		}
		if len(leagues) > 0 && !leagues[s.League] {
			continue
		}

		for ii := range s.Items {
			item := &s.Items[ii]
			if item.LockedToCharacter || item.LockedToAccount {
				continue
			}

			note := item.Note
			if note == "" {
				note = s.Name
			}
			price, ok := ParsePrice(note)
			if !ok {
				continue
			}

			out = append(out, Listing{
				AccountName: s.AccountName,
				StashID:     s.ID,
				StashName:   s.Name,
				League:      s.League,
				Note:        note,
				Price:       price,
				Item:        item,
			})
		}
	}
	return out
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = true
		}
	}
	return set
}
