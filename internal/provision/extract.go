package provision

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/specify/internal/configmerge"
)

// ExtractResult summarizes what an archive put on disk.
type ExtractResult struct {
	// Files lists the written files relative to the target directory, slash-separated.
	Files []string
	// Merged lists the JSON files that were reconciled with an existing copy.
	Merged []string
	// Flattened is true when the archive's single top-level directory was stripped.
	Flattened bool
}

// Extract unpacks the zip archive at archivePath into target.
//
// When every entry lives under one top-level directory, that directory is
// stripped. Entries that would land outside target are rejected. A JSON file
// that already exists in target and whose archive copy decodes to an object is
// deep-merged with the existing file instead of replacing it.
func Extract(archivePath, target string) (*ExtractResult, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, fmt.Errorf("creating target directory: %w", err)
	}

	prefix := commonRoot(zr.File)
	result := &ExtractResult{Flattened: prefix != ""}

	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, prefix)
		if name == "" || name == "/" {
			continue
		}
		rel := filepath.FromSlash(strings.TrimSuffix(name, "/"))
		if !filepath.IsLocal(rel) {
			return nil, fmt.Errorf("archive entry %q escapes the target directory", f.Name)
		}
		dest := filepath.Join(target, rel)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return nil, fmt.Errorf("creating directory %s: %w", rel, err)
			}
			continue
		}
		if f.Mode()&os.ModeSymlink != 0 {
			logDebug("[provision] skipping symlink %s", f.Name)
			continue
		}

		merged, err := extractFile(f, dest)
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", rel, err)
		}
		slashRel := filepath.ToSlash(rel)
		result.Files = append(result.Files, slashRel)
		if merged {
			result.Merged = append(result.Merged, slashRel)
		}
	}

	logDebug("[provision] extracted %d files (%d merged, flattened=%v)", len(result.Files), len(result.Merged), result.Flattened)
	return result, nil
}

// extractFile writes one entry to dest and reports whether it was merged.
func extractFile(f *zip.File, dest string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, err
	}

	if strings.EqualFold(filepath.Ext(dest), ".json") && fileExists(dest) {
		data, err := readEntry(f)
		if err != nil {
			return false, err
		}
		if incoming, err := configmerge.Parse(data); err == nil {
			if err := configmerge.WriteFile(dest, configmerge.MergeFile(dest, incoming)); err != nil {
				return false, err
			}
			logDebug("[provision] merged %s", dest)
			return true, nil
		}
		logDebug("[provision] %s is not a JSON object, overwriting", f.Name)
	}

	return false, writeEntry(f, dest)
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func writeEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// commonRoot returns "dir/" when every entry sits inside the same top-level
// directory, and "" otherwise.
func commonRoot(files []*zip.File) string {
	root := ""
	for _, f := range files {
		first, _, nested := strings.Cut(f.Name, "/")
		if !nested || first == "" || first == "." || first == ".." {
			return ""
		}
		if root != "" && first != root {
			return ""
		}
		root = first
	}
	if root == "" {
		return ""
	}
	return path.Clean(root) + "/"
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
