package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/klauspost/compress/flate"
)

// Entry is a single file placed inside an installer archive.
type Entry struct {
	// Name is the path of the file inside the archive.
	Name string
	// Body is the file content.
	Body []byte
	// Mode carries the unix permission bits; entry scripts need the exec bit.
	Mode os.FileMode
}

// Build writes a zip archive at path containing exactly the provided
// entries. Entries are written in name order so identical inputs produce
// identical member layouts. An existing archive is only overwritten when
// force is set.
func Build(path string, entries []Entry, force bool) (err error) {
	if !force {
		if _, statErr := os.Stat(path); statErr == nil {
			return fmt.Errorf("archive %s already exists, use --force to overwrite", path)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close archive: %w", closeErr)
		}
	}()

	writer := zip.NewWriter(file)
	writer.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	now := time.Now().UTC()

	for _, entry := range sorted {
		header := &zip.FileHeader{
			Name:     entry.Name,
			Method:   zip.Deflate,
			Modified: now,
		}
		header.SetMode(entry.Mode)

		member, err := writer.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("add %s to archive: %w", entry.Name, err)
		}

		if _, err := member.Write(entry.Body); err != nil {
			return fmt.Errorf("write %s to archive: %w", entry.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}

	return nil
}

// FileEntry reads a file from disk into an Entry stored under name.
func FileEntry(name, path string, mode os.FileMode) (Entry, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", path, err)
	}

	return Entry{Name: name, Body: body, Mode: mode}, nil
}
