// Package platform identifies the (OS, architecture, accelerator) tuple an
// installer build targets and detects it for the local machine.
//
// Detection is strictly local: the toolchain never cross-generates manifests
// for a platform it is not running on.
package platform
