// Package cache stores signature specs on disk between runs.
//
// Entries live in one bbolt bucket. Each value is a JSON envelope recording
// when it was stored, compressed with zstd. Entries older than the TTL read
// as misses and are removed lazily.
//
// A nil *Store is a valid cache that never hits, so callers can disable
// caching by not opening one.
package cache
