// Package output renders peerhub-peer command results as a table, JSON
// or YAML.
package output
