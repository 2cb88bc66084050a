package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/invoke-ai/release-packager/internal/platform"
)

// TestResolveSupportedSet checks the exact filename produced for every supported platform.
func TestResolveSupportedSet(t *testing.T) {
	t.Parallel()

	cases := []struct {
		key  platform.Key
		want Ref
	}{
		{platform.Key{OS: "darwin", Arch: "arm64", Accelerator: "mps"}, "py3.10-darwin-arm64-mps-reqs.txt"},
		{platform.Key{OS: "darwin", Arch: "arm64", Accelerator: "none"}, "py3.10-darwin-arm64-mps-reqs.txt"},
		{platform.Key{OS: "darwin", Arch: "x86_64", Accelerator: "none"}, "py3.10-darwin-x86_64-reqs.txt"},
		{platform.Key{OS: "linux", Arch: "x86_64", Accelerator: "cuda"}, "py3.10-linux-x86_64-cuda-reqs.txt"},
		{platform.Key{OS: "windows", Arch: "x86_64", Accelerator: "cuda"}, "py3.10-windows-x86_64-cuda-reqs.txt"},
	}

	for _, tc := range cases {
		got, err := Resolve(tc.key)
		require.NoError(t, err, "key %s", tc.key)
		require.Equal(t, tc.want, got)
	}
}

// TestResolveUnsupported ensures tuples outside the supported set fail with a
// typed error instead of returning a guessed filename.
func TestResolveUnsupported(t *testing.T) {
	t.Parallel()

	cases := []platform.Key{
		{OS: "linux", Arch: "arm64", Accelerator: "none"},
		{OS: "linux", Arch: "x86_64", Accelerator: "none"},
		{OS: "linux", Arch: "x86_64", Accelerator: "mps"},
		{OS: "windows", Arch: "x86_64", Accelerator: "none"},
		{OS: "windows", Arch: "arm64", Accelerator: "cuda"},
		{OS: "darwin", Arch: "x86_64", Accelerator: "cuda"},
		{OS: "darwin", Arch: "x86_64", Accelerator: "mps"},
	}

	for _, key := range cases {
		_, err := Resolve(key)
		require.Error(t, err, "key %s", key)

		var unsupported *UnsupportedPlatformError

		require.ErrorAs(t, err, &unsupported)
		require.Equal(t, key, unsupported.Key)
	}
}

// TestResolveIdempotent verifies resolution is a pure mapping with no hidden state.
func TestResolveIdempotent(t *testing.T) {
	t.Parallel()

	key := platform.Key{OS: "windows", Arch: "x86_64", Accelerator: "cuda"}

	first, err := Resolve(key)
	require.NoError(t, err)

	second, err := Resolve(key)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

// TestResolveForPythonVersion checks the interpreter series prefix is honored.
func TestResolveForPythonVersion(t *testing.T) {
	t.Parallel()

	key := platform.Key{OS: "linux", Arch: "x86_64", Accelerator: "cuda"}

	got, err := ResolveFor("3.11", key)
	require.NoError(t, err)
	require.Equal(t, Ref("py3.11-linux-x86_64-cuda-reqs.txt"), got)
}

// TestSupportedKeysResolve ensures every advertised key actually has a manifest convention.
func TestSupportedKeysResolve(t *testing.T) {
	t.Parallel()

	keys := SupportedKeys()
	require.Len(t, keys, 4)

	seen := make(map[Ref]struct{}, len(keys))

	for _, key := range keys {
		ref, err := Resolve(key)
		require.NoError(t, err)

		_, duplicate := seen[ref]
		require.False(t, duplicate, "manifest %s mapped twice", ref)
		seen[ref] = struct{}{}
	}
}
