// Package cmap provides a sharded concurrent map keyed by strings.
//
// Keys are spread over a power-of-two number of shards using murmur3,
// and every shard carries its own RWMutex, so readers and writers of
// different keys rarely contend while all access to a single key is
// mutually exclusive.
//
// Usage:
//
//	m := cmap.New[string, *domain.Session]()
//	m.Set(token, session)
//	s, ok := m.Get(token)
//	m.DeleteFunc(func(_ string, s *domain.Session) bool { return s.IsExpired() })
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Has, Range) use
// RLock, write operations (Set, Delete, Update, DeleteFunc) use Lock.
package cmap
