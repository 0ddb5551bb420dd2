// Package query provides validation, defaulting, and cursor handling for
// run artifact listings.
//
// All store backends accept a ledger.Query that has passed Validate and
// ApplyDefaults. Limits are clamped to [1, 200]; ordering is newest-first;
// filters compose with logical AND. The pagination cursor is an opaque
// token encoding date-partition plus filename position; callers pass it
// back unchanged, and a page's NextCursor is empty exactly when no further
// results exist.
package query
