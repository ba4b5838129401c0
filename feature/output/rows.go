package output

import (
	"stash-ingest/feature/detector"
	"stash-ingest/feature/modifier"
)

// ItemRow is an item listing as accepted by POST /item/.
type ItemRow struct {
	GameItemID    string   `json:"gameItemId"`
	Fingerprint   string   `json:"fingerprint"`
	Variant       string   `json:"variant"`
	Name          string   `json:"name"`
	BaseType      string   `json:"baseType"`
	League        string   `json:"league"`
	AccountName   string   `json:"accountName"`
	StashID       string   `json:"stashId"`
	Note          string   `json:"note"`
	PriceAmount   float64  `json:"priceAmount"`
	PriceCurrency string   `json:"priceCurrency"`
	ItemLevel     int      `json:"ilvl"`
	Identified    bool     `json:"identified"`
	Rarity        string   `json:"rarity"`
	Influences    []string `json:"influences"`
	Icon          string   `json:"icon"`
	Corrupted     bool     `json:"corrupted"`
}

// ModifierRow is an extracted fact as accepted by POST /itemModifier/.
type ModifierRow struct {
	ItemID      string   `json:"itemId"`
	Fingerprint string   `json:"fingerprint"`
	ModifierID  int      `json:"modifierId"`
	Position    int      `json:"position"`
	OrderID     int      `json:"orderId"`
	Roll        *float64 `json:"roll"`
	OutOfBounds bool     `json:"outOfBounds"`
}

// Rows is the output of one batch.
type Rows struct {
	Items     []ItemRow
	Modifiers []ModifierRow
}

// Len returns the total number of rows.
func (r Rows) Len() int { return len(r.Items) + len(r.Modifiers) }

// Assemble shapes a batch's detections and facts into storage rows.
// Items are emitted per variant in detector order; facts in extraction order.
func Assemble(result *detector.Result, ext *modifier.Extraction) Rows {
	var rows Rows
	if result != nil {
		for _, v := range result.Variants {
			for _, l := range v.Listings {
				rows.Items = append(rows.Items, itemRow(v.Name, l))
			}
		}
	}
	if ext != nil {
		for _, f := range ext.Facts {
			rows.Modifiers = append(rows.Modifiers, ModifierRow{
				ItemID:      f.ItemID,
				Fingerprint: f.Fingerprint,
				ModifierID:  f.ModifierID,
				Position:    f.Position,
				OrderID:     f.OrderID,
				Roll:        f.Roll,
				OutOfBounds: f.OutOfBounds,
			})
		}
	}
	return rows
}

func itemRow(variant string, l detector.Listing) ItemRow {
	it := l.Item
	return ItemRow{
		GameItemID:    it.ID,
		Fingerprint:   l.Key(),
		Variant:       variant,
		Name:          it.Name,
		BaseType:      it.Base(),
		League:        l.League,
		AccountName:   l.AccountName,
		StashID:       l.StashID,
		Note:          l.Note,
		PriceAmount:   l.Price.Amount,
		PriceCurrency: l.Price.Currency,
		ItemLevel:     it.ItemLevel,
		Identified:    it.Identified,
		Rarity:        rarity(it.Rarity, it.IsUnique()),
		Influences:    it.InfluenceNames(),
		Icon:          it.Icon,
		Corrupted:     it.Corrupted,
	}
}

func rarity(r string, unique bool) string {
	if r == "" && unique {
		return "Unique"
	}
	return r
}
