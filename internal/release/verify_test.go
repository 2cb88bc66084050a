package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/require"
)

// newGitHubVerifier points the verifier's GitHub client at a test server.
func newGitHubVerifier(t *testing.T, server *httptest.Server) *Verifier {
	t.Helper()

	verifier := NewVerifier(5 * time.Second)

	client, err := github.NewClient(nil).WithEnterpriseURLs(server.URL, server.URL)
	require.NoError(t, err)

	verifier.github = client

	return verifier
}

// TestVerifyGitHubRefFound accepts a target whose branch exists.
func TestVerifyGitHubRefFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/repos/invoke-ai/InvokeAI/git/ref/heads/main", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ref":"refs/heads/main","object":{"sha":"abc123","type":"commit"}}`))
	}))
	t.Cleanup(server.Close)

	verifier := newGitHubVerifier(t, server)

	target := Target{
		URL:        "https://github.com/invoke-ai/InvokeAI",
		Sourceball: "/archive/refs/heads/main.tar.gz",
	}

	require.NoError(t, verifier.Verify(context.Background(), target))
}

// TestVerifyGitHubRefMissing rejects a target whose branch does not exist.
func TestVerifyGitHubRefMissing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	verifier := newGitHubVerifier(t, server)

	target := Target{
		URL:        "https://github.com/invoke-ai/InvokeAI",
		Sourceball: "/archive/refs/heads/does-not-exist.tar.gz",
	}

	require.Error(t, verifier.Verify(context.Background(), target))
}

// TestVerifyNonGitHubHead falls back to a HEAD probe for other hosts.
func TestVerifyNonGitHubHead(t *testing.T) {
	t.Parallel()

	var gotHead bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHead = r.Method == http.MethodHead
		require.Equal(t, "/archive/refs/tags/v2.3.0.tar.gz", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	verifier := NewVerifier(5 * time.Second)

	target := Target{
		URL:        server.URL,
		Sourceball: "/archive/refs/tags/v2.3.0.tar.gz",
	}

	require.NoError(t, verifier.Verify(context.Background(), target))
	require.True(t, gotHead)
}

// TestVerifyNonGitHubHeadFailure surfaces HTTP errors from the probe.
func TestVerifyNonGitHubHeadFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	verifier := NewVerifier(5 * time.Second)

	target := Target{
		URL:        server.URL,
		Sourceball: "/archive/refs/heads/main.tar.gz",
	}

	require.Error(t, verifier.Verify(context.Background(), target))
}
