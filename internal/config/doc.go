// Package config defines release settings used by the toolchain binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the release target, manifest locations and the
// external dependency-locking command.
package config
