// Package packager builds the distributable installer archives, one per
// platform, from a verified release target and a fresh manifest set.
//
// It renders the installer entry scripts with RELEASE_URL and
// RELEASE_SOURCEBALL baked in, bundles the pinned manifests next to them,
// and zips the result for upload to the release page.
package packager
