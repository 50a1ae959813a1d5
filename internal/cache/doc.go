// Package cache provides the persistent content cache.
//
// The cache maps normalized URLs to fetched response bodies so repeated
// runs reuse prior fetches instead of hitting the network again. It is
// backed by a single SQLite database file and is safe for concurrent use
// from multiple workers: every mutation for a key runs under that key's
// lock, so readers never observe a partially written entry.
//
// Corruption of the backing store degrades to a cache miss, never to a
// fatal error.
package cache
