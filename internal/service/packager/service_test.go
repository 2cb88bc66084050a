package packager

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/invoke-ai/release-packager/internal/config"
	"github.com/invoke-ai/release-packager/internal/manifest"
)

// packagingFixture prepares a fresh manifest set and a persisted settings
// file with a release target, returning the settings path and config.
func packagingFixture(t *testing.T) (string, *config.Config) {
	t.Helper()

	dir := t.TempDir()
	source := filepath.Join(dir, "requirements.in")
	require.NoError(t, os.WriteFile(source, []byte("torch\n"), 0o644))

	cfg := &config.Config{
		ReleaseURL:        "https://github.com/invoke-ai/InvokeAI",
		ReleaseSourceball: "/archive/refs/heads/main.tar.gz",
		ReleaseVersion:    "2.3.0",
		SourceFile:        source,
		ManifestDir:       dir,
		OutputDir:         filepath.Join(dir, "dist"),
	}
	require.NoError(t, config.Validate(cfg))

	checksum, err := manifest.SourceChecksum(source)
	require.NoError(t, err)

	index := manifest.NewIndex(source)

	for _, key := range manifest.SupportedKeys() {
		ref, err := manifest.ResolveFor(cfg.PythonVersion, key)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, string(ref)), []byte("# pinned\n"), 0o644))
		index.SetRecord(ref, manifest.Record{
			SourceChecksum: checksum,
			Host:           key.String(),
			GeneratedAt:    time.Now().UTC(),
		})
	}

	require.NoError(t, index.Save(filepath.Join(dir, manifest.IndexFilename)))

	configPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, config.Save(configPath, cfg))

	return configPath, cfg
}

// archiveMembers lists member names of a zip file.
func archiveMembers(t *testing.T, path string) []string {
	t.Helper()

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, reader.Close())
	})

	names := make([]string, 0, len(reader.File))
	for _, member := range reader.File {
		names = append(names, member.Name)
	}

	return names
}

// TestRunBuildsAllArchives produces the three platform installer archives
// with the expected members.
func TestRunBuildsAllArchives(t *testing.T) {
	t.Parallel()

	configPath, cfg := packagingFixture(t)

	err := Run(context.Background(), &Options{
		ConfigPath: configPath,
		SkipVerify: true,
	})
	require.NoError(t, err)

	mac := filepath.Join(cfg.OutputDir, "invokeai-installer-2.3.0-mac.zip")
	require.ElementsMatch(t, []string{
		"install.sh",
		"readme.txt",
		"py3.10-darwin-arm64-mps-reqs.txt",
		"py3.10-darwin-x86_64-reqs.txt",
	}, archiveMembers(t, mac))

	linux := filepath.Join(cfg.OutputDir, "invokeai-installer-2.3.0-linux.zip")
	require.ElementsMatch(t, []string{
		"install.sh",
		"readme.txt",
		"py3.10-linux-x86_64-cuda-reqs.txt",
	}, archiveMembers(t, linux))

	windows := filepath.Join(cfg.OutputDir, "invokeai-installer-2.3.0-windows.zip")
	require.ElementsMatch(t, []string{
		"install.bat",
		"readme.txt",
		"py3.10-windows-x86_64-cuda-reqs.txt",
	}, archiveMembers(t, windows))
}

// TestRunRefusesStaleManifests stops before building anything when the
// requirements source changed after locking.
func TestRunRefusesStaleManifests(t *testing.T) {
	t.Parallel()

	configPath, cfg := packagingFixture(t)
	require.NoError(t, os.WriteFile(cfg.SourceFile, []byte("torch\nnew-dep\n"), 0o644))

	err := Run(context.Background(), &Options{
		ConfigPath: configPath,
		SkipVerify: true,
	})
	require.ErrorIs(t, err, errManifestsNotReady)

	_, statErr := os.Stat(cfg.OutputDir)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

// TestRunRequiresReleaseTarget fails fast without a configured target.
func TestRunRequiresReleaseTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "requirements.in")
	require.NoError(t, os.WriteFile(source, []byte("torch\n"), 0o644))

	cfg := &config.Config{SourceFile: source, ManifestDir: dir}
	require.NoError(t, config.Validate(cfg))

	configPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, config.Save(configPath, cfg))

	err := Run(context.Background(), &Options{ConfigPath: configPath, SkipVerify: true})
	require.ErrorIs(t, err, errReleaseTargetUnset)
}

// TestRunRefusesWhileLockerActive respects the lock marker.
func TestRunRefusesWhileLockerActive(t *testing.T) {
	t.Parallel()

	configPath, cfg := packagingFixture(t)

	markerPath := filepath.Join(cfg.ManifestDir, "release-lock-marker.bin")
	require.NoError(t, os.WriteFile(markerPath, []byte("1"), 0o644))

	err := Run(context.Background(), &Options{ConfigPath: configPath, SkipVerify: true})
	require.ErrorIs(t, err, errLockerRunning)
}

// TestArchiveNameFallsBackToDev uses "dev" when no release version is set.
func TestArchiveNameFallsBackToDev(t *testing.T) {
	t.Parallel()

	cfg := new(config.Config)
	require.NoError(t, config.Validate(cfg))

	p := &packager{cfg: cfg}
	require.Equal(t, "invokeai-installer-dev-mac.zip", p.archiveName(bundles()[0]))
}
