// Package release models the release target baked into installer scripts:
// a repository base URL plus a sourceball path suffix whose concatenation is
// the exact download URL, and a verifier that confirms the referenced branch
// or tag exists before anything is packaged against it.
package release
