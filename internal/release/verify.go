package release

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
)

// Verifier checks that a release target actually exists before installers
// are built against it. A target pointing at a missing branch would
// otherwise fail only at end-user install time.
type Verifier struct {
	github     *github.Client
	httpClient *http.Client
}

// NewVerifier creates a verifier with the given timeout for both the GitHub
// API and the plain HTTP fallback.
func NewVerifier(timeout time.Duration) *Verifier {
	httpClient := &http.Client{Timeout: timeout}

	return &Verifier{
		github:     github.NewClient(httpClient),
		httpClient: httpClient,
	}
}

// Verify confirms the target's git reference exists. GitHub-hosted targets
// are checked through the API; other hosts get a HEAD request against the
// download URL.
func (v *Verifier) Verify(ctx context.Context, target Target) error {
	if err := target.Validate(); err != nil {
		return err
	}

	ref, err := ParseSourceball(target.Sourceball)
	if err != nil {
		return err
	}

	owner, repo, ok := splitGitHubURL(target.URL)
	if !ok {
		return v.verifyHead(ctx, target)
	}

	refName := ref.Type + "/" + ref.Name

	if _, _, err := v.github.Git.GetRef(ctx, owner, repo, refName); err != nil {
		return fmt.Errorf("release ref %s not found in %s/%s: %w", refName, owner, repo, err)
	}

	return nil
}

// verifyHead probes non-GitHub hosts with a HEAD request on the download URL.
func (v *Verifier) verifyHead(ctx context.Context, target Target) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodHead, target.DownloadURL(), nil)
	if err != nil {
		return fmt.Errorf("build release probe: %w", err)
	}

	response, err := v.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("probe release target: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("release target %s returned status %d", target.DownloadURL(), response.StatusCode)
	}

	return nil
}

// splitGitHubURL extracts owner and repository from a github.com base URL.
func splitGitHubURL(base string) (owner, repo string, ok bool) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", "", false
	}

	host := strings.ToLower(parsed.Host)
	if host != "github.com" && host != "www.github.com" {
		return "", "", false
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}

	return parts[0], parts[1], true
}
