// Package storage owns the three persisted records: users, stats, settings.
//
// Loading is fail-open: a missing or corrupt record yields its schema
// default and never blocks startup. Saving is fail-open too: a persistence
// failure is logged and swallowed, and the in-memory record stays
// authoritative. Availability of the bot is deliberately prioritized over
// durability of state.
//
// Each record has its own lock, so concurrent events can never lose
// increments to a read-modify-write race.
package storage
