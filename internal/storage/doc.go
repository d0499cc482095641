// Package storage provides credential storage backends for peerhub.
//
//   - memory: process-local map, lost on restart
//   - file: a JSON document rewritten atomically on every change
//   - badger: an embedded Badger v3 database with background value-log GC
//
// Sessions and peers are never persisted; only credentials survive a
// restart.
package storage
