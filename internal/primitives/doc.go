// Package primitives provides the foundational data structures shared by the
// navigation core: the navigation Entry, the lifecycle Event vocabulary, the
// navigation Origin and URL normalization helpers.
//
// Core invariants:
// - Entries are values; the ledger hands out copies
// - Event names form a closed vocabulary
// - URLs are compared after CleanURL (fragment stripped)
package primitives
