// Package templates carries the installer entry scripts shipped inside the
// platform archives. The scripts are rendered at packaging time with the
// release target baked in as literal RELEASE_URL and RELEASE_SOURCEBALL
// assignments.
package templates
