// Package modifier compiles the modifier catalog and extracts rolls from affix text.
//
// # Catalog
//
// The catalog is a list of Template rows read from the storage service
// (GET /modifier/). A row whose effect has no "#" is static and matched by exact text.
// Rows sharing a modifier id and effect are the positions of one dynamic modifier:
// "Adds # to # Physical Damage" has position 0 (low end) and position 1 (high end).
//
// # Compilation
//
// Each dynamic modifier becomes one anchored regular expression:
//   - literal text is escaped;
//   - each "#" becomes a capture, a signed decimal for numeric rolls or an alternation
//     of the categories for text rolls, in position order;
//   - a "+" or "-" in front of a numeric "#" is read as the sign of the value;
//   - "increased"/"reduced" and "more"/"less" accept either word. The opposite word
//     negates the numeric rolls.
//
// Expressions are tried longest literal text first, so "+# to Strength and Dexterity"
// wins over "+# to Strength". A group with missing or duplicated positions, or a
// numeric position without bounds, is skipped and reported as a TemplateError.
//
// # Extraction
//
// Matcher.ExtractBatch runs the cheap static lookup over every affix of a batch, then
// the dynamic expressions over what is left. Numeric rolls are normalised with
// Normalize; text rolls yield the category index; static templates yield no roll.
// OrderID separates repeated copies of the same modifier on one item. An affix that
// matches nothing is reported as a CatalogMismatchError and skipped.
//
// # Snapshots
//
// Catalog holds the Matcher in use. Refresh builds a new Matcher in the background;
// Promote swaps it in at a batch boundary so that a batch never mixes two catalogs.
package modifier
