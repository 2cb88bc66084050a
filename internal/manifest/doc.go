// Package manifest resolves pinned requirements manifest filenames from
// platform keys and tracks their provenance in a lock index.
//
// The naming convention is fixed: py<version>-<os>-<arch>[-<accelerator>]-reqs.txt.
// Exactly one manifest exists per supported platform; a key outside the
// supported set is a fatal configuration error, never a fallback.
package manifest
