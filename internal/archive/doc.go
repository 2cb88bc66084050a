// Package archive builds the distributable installer zip files, one per
// platform, with deterministic member ordering.
package archive
