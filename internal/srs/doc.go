// Package srs decides which cards a deck shows on each visit and how a graded
// answer updates the deck's review store.
//
// The per-card memory model is delegated to a Scheduler. This package only
// orchestrates which cards are due, which new cards may be introduced today,
// the order they are presented in, the in-session learning loop for cards
// answered Again, and the day-scoped counters kept on the store.
//
// The session builder and the due-count aggregator share one admission scan,
// so a dashboard badge always equals the size of the session it advertises.
package srs
