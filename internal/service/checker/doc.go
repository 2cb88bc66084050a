// Package checker audits manifest hygiene: it verifies that every supported
// platform has a pinned manifest generated from the current requirements
// source. A changed source with stale manifests would otherwise ship
// installers pinning dependencies nobody intended.
package checker
