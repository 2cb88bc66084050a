// Package locker compiles the pinned, hash-verified requirements manifest
// for the machine it runs on by invoking the external dependency-locking
// tool, and records the generation in the lock index.
//
// Locking is strictly host-bound: a manifest for another platform cannot be
// generated here, only on a machine matching that platform.
package locker
