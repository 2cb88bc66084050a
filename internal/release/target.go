package release

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// errEmptyTarget is returned when the release URL or sourceball is missing.
	errEmptyTarget = errors.New("release URL and sourceball must both be set")
	// errTrailingSlash is returned when the release URL ends with a slash.
	errTrailingSlash = errors.New("release URL must not end with a slash")
	// errSourceballFormat is returned when the sourceball path does not follow
	// the /archive/refs/<type>/<name>.<ext> convention.
	errSourceballFormat = errors.New("sourceball must look like /archive/refs/heads/<branch>.tar.gz or /archive/refs/tags/<tag>.tar.gz")
)

// Target identifies which repository and branch archive the produced
// installers will download at install time. It is fixed once by the
// packager and embedded as literal RELEASE_URL and RELEASE_SOURCEBALL
// assignments in the installer scripts.
type Target struct {
	// URL is the repository base URL, e.g. https://github.com/invoke-ai/InvokeAI.
	URL string
	// Sourceball is the archive path suffix, e.g. /archive/refs/heads/main.tar.gz.
	Sourceball string
}

// DownloadURL returns the exact URL the installer fetches: the literal
// concatenation of the repository URL and the sourceball suffix, with no
// separators added or removed.
func (t Target) DownloadURL() string {
	return t.URL + t.Sourceball
}

// Validate checks the target is structurally sound before it gets baked
// into installer scripts, where a mistake only surfaces on end-user machines.
func (t Target) Validate() error {
	if t.URL == "" || t.Sourceball == "" {
		return errEmptyTarget
	}

	parsed, err := url.ParseRequestURI(t.URL)
	if err != nil {
		return fmt.Errorf("invalid release URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid release URL scheme: %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("release URL has no host: %q", t.URL)
	}

	if strings.HasSuffix(t.URL, "/") {
		return errTrailingSlash
	}

	if _, err := ParseSourceball(t.Sourceball); err != nil {
		return err
	}

	return nil
}

// RefTypeHeads and RefTypeTags are the git reference namespaces a sourceball may point into.
const (
	RefTypeHeads = "heads"
	RefTypeTags  = "tags"
)

// GitRef is the git reference encoded in a sourceball path.
type GitRef struct {
	// Type is "heads" for branches or "tags" for tags.
	Type string
	// Name is the branch or tag name. Branch names may contain slashes.
	Name string
}

// ParseSourceball extracts the git reference from an archive path like
// /archive/refs/heads/main.tar.gz or /archive/refs/tags/v2.3.0.zip.
func ParseSourceball(sourceball string) (GitRef, error) {
	rest, ok := strings.CutPrefix(sourceball, "/archive/refs/")
	if !ok {
		return GitRef{}, fmt.Errorf("%w: %q", errSourceballFormat, sourceball)
	}

	switch {
	case strings.HasSuffix(rest, ".tar.gz"):
		rest = strings.TrimSuffix(rest, ".tar.gz")
	case strings.HasSuffix(rest, ".zip"):
		rest = strings.TrimSuffix(rest, ".zip")
	default:
		return GitRef{}, fmt.Errorf("%w: %q", errSourceballFormat, sourceball)
	}

	refType, name, ok := strings.Cut(rest, "/")
	if !ok || name == "" || (refType != RefTypeHeads && refType != RefTypeTags) {
		return GitRef{}, fmt.Errorf("%w: %q", errSourceballFormat, sourceball)
	}

	return GitRef{Type: refType, Name: name}, nil
}
