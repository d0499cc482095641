// Package config defines the peerhub-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation (addresses, durations, backend names)
//   - sanitize.go: log-safe copy with secrets masked
//   - convert.go: conversion into component configurations
//
// Configuration is loaded via internal/infra/confloader from defaults,
// a YAML file, PEERHUB_* environment variables and flags.
package config
