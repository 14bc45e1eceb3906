// Package dtype is the registry of column kinds.
//
// The set of kinds is closed and registered once in a static table. A Kind
// is data, not behavior. It knows its dtype name and aliases, the database
// type it maps to, how to render Go literals, which casts it accepts, which
// binary operators it supports against which right-hand kinds, and which
// aggregations apply to it.
//
// Registered kinds: int64, float64, bool, string, uuid, timestamp, date,
// time and timedelta.
package dtype
