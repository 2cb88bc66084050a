// Package common holds coordination helpers shared by the release binaries,
// chiefly the lock marker that keeps packaging and dependency locking from
// racing each other on one machine.
package common
