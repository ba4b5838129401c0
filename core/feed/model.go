package feed

import "encoding/json"

// Page is one successful response of the public stash feed.
type Page struct {
	// Cursor is the change id the page was requested with.
	Cursor string
	// NextCursor is the feed provided next_change_id. It advances even for empty pages.
	NextCursor string
	// Stashes are the decoded stash records in delivery order.
	Stashes []Stash
	// Malformed lists the records that could not be decoded and were skipped.
	Malformed []*MalformedRecordError
	// RateLimit is the rate limit state reported with the response.
	RateLimit RateLimitHint
}

// Items returns the number of items carried by the page.
func (p *Page) Items() int {
	n := 0
	for _, s := range p.Stashes {
		n += len(s.Items)
	}
	return n
}

// Stash is one public stash tab snapshot.
type Stash struct {
	ID          string `json:"id"`
	AccountName string `json:"accountName"`
	Name        string `json:"stash"`
	Type        string `json:"stashType"`
	Public      bool   `json:"public"`
	League      string `json:"league"`
	Items       []Item `json:"items"`
}

// Item is a listed item as delivered by the feed.
// ID is not a stable key: the same item keeps its id across unrelated stash edits.
type Item struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	TypeLine          string          `json:"typeLine"`
	BaseType          string          `json:"baseType"`
	Rarity            string          `json:"rarity"`
	FrameType         int             `json:"frameType"`
	Identified        bool            `json:"identified"`
	Corrupted         bool            `json:"corrupted"`
	Duplicated        bool            `json:"duplicated"`
	ItemLevel         int             `json:"ilvl"`
	Note              string          `json:"note"`
	Icon              string          `json:"icon"`
	LockedToCharacter bool            `json:"lockedToCharacter"`
	LockedToAccount   bool            `json:"lockedToAccount"`
	Influences        map[string]bool `json:"influences"`
	ImplicitMods      []string        `json:"implicitMods"`
	ExplicitMods      []string        `json:"explicitMods"`
	CraftedMods       []string        `json:"craftedMods"`
	EnchantMods       []string        `json:"enchantMods"`
	FracturedMods     []string        `json:"fracturedMods"`
	MutatedMods       []string        `json:"mutatedMods"`
	VeiledMods        []string        `json:"veiledMods"`
	Extended          *Extended       `json:"extended"`
}

// Extended carries the feed's item classification.
type Extended struct {
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories"`
}

// Unique frame type in the feed's item encoding.
const frameTypeUnique = 3

// IsUnique reports whether the item has unique rarity.
// Older payloads only carry frameType.
func (i *Item) IsUnique() bool {
	if i.Rarity != "" {
		return i.Rarity == "Unique"
	}
	return i.FrameType == frameTypeUnique
}

// Base returns the item base type, falling back to typeLine.
func (i *Item) Base() string {
	if i.BaseType != "" {
		return i.BaseType
	}
	return i.TypeLine
}

// InfluenceNames returns the active influences in a stable order.
func (i *Item) InfluenceNames() []string {
	names := make([]string, 0, len(i.Influences))
	for _, k := range influenceOrder {
		if i.Influences[k] {
			names = append(names, k)
		}
	}
	return names
}

var influenceOrder = []string{"shaper", "elder", "crusader", "redeemer", "hunter", "warlord", "searing", "tangled"}

type rawPage struct {
	NextChangeID *string           `json:"next_change_id"`
	Stashes      []json.RawMessage `json:"stashes"`
}

type rawStash struct {
	ID          string            `json:"id"`
	AccountName *string           `json:"accountName"`
	Name        string            `json:"stash"`
	Type        string            `json:"stashType"`
	Public      bool              `json:"public"`
	League      *string           `json:"league"`
	Items       []json.RawMessage `json:"items"`
}
