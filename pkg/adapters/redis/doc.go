// Package redis provides Redis-backed adapters: a snapshot store, a
// distributed locker and a cache-aside decorator for search providers.
package redis
