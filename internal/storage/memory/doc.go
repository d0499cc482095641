// Package memory provides the in-memory credential store.
//
// All operations are guarded by a single RWMutex. Stored credentials are
// copied on the way in and out so callers never share state with the store.
package memory
