// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults (the target struct's pre-populated values)
//  2. YAML configuration file
//  3. Environment variables (PEERHUB_ prefix)
//  4. Explicit overrides (command-line flags, via LoadMap)
//
// Watcher reports changes to the configuration file through fsnotify so
// that reloadable settings can be re-applied at runtime.
package confloader
