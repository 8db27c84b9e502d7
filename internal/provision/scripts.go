package provision

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ScriptsDir is where templates keep their automation scripts, relative to the workspace.
var ScriptsDir = filepath.Join(".specify", "scripts")

// PermissionResult summarizes EnsureExecutable.
type PermissionResult struct {
	Updated  int
	Failures []string
}

// EnsureExecutable marks every .sh file under root/ScriptsDir that starts
// with a shebang as executable. Execute bits are added wherever the matching
// read bit is set, and always for the owner.
func EnsureExecutable(root string) (*PermissionResult, error) {
	dir := filepath.Join(root, ScriptsDir)
	result := &PermissionResult{}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return result, nil
	}

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sh") || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		rel, _ := filepath.Rel(root, p)
		changed, err := makeExecutable(p)
		if err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", filepath.ToSlash(rel), err))
			return nil
		}
		if changed {
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walking %s: %w", dir, err)
	}
	return result, nil
}

func makeExecutable(p string) (bool, error) {
	ok, err := hasShebang(p)
	if err != nil || !ok {
		return false, err
	}

	info, err := os.Stat(p)
	if err != nil {
		return false, err
	}
	mode := info.Mode().Perm()
	if mode&0o111 != 0 {
		return false, nil
	}

	newMode := mode | (mode&0o444)>>2 | 0o100
	if err := os.Chmod(p, newMode); err != nil {
		return false, err
	}
	return true, nil
}

func hasShebang(p string) (bool, error) {
	f, err := os.Open(p)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 2)
	if _, err := io.ReadFull(f, head); err != nil {
		return false, nil
	}
	return bytes.Equal(head, []byte("#!")), nil
}
