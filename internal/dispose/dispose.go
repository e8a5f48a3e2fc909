// ABOUTME: Perform-disposition capability: move an item to a folder or to the trash directory.
// ABOUTME: Each operation succeeds or fails atomically per entry and never touches the ledger.
package dispose

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// MoveTo moves path into folder, creating the folder if needed. A name
// collision gets a " (n)" suffix rather than overwriting. Returns the final
// destination path.
func MoveTo(path, folder string) (string, error) {
	if err := os.MkdirAll(folder, 0o750); err != nil {
		return "", fmt.Errorf("create destination folder: %w", err)
	}
	dest := availableName(folder, filepath.Base(path))
	if err := move(path, dest); err != nil {
		return "", fmt.Errorf("move %s: %w", filepath.Base(path), err)
	}
	return dest, nil
}

// Trash moves path into trashDir. Same collision handling as MoveTo.
func Trash(path, trashDir string) (string, error) {
	if err := os.MkdirAll(trashDir, 0o750); err != nil {
		return "", fmt.Errorf("create trash directory: %w", err)
	}
	dest := availableName(trashDir, filepath.Base(path))
	if err := move(path, dest); err != nil {
		return "", fmt.Errorf("trash %s: %w", filepath.Base(path), err)
	}
	return dest, nil
}

// move renames src to dst, falling back to copy-and-remove for regular files
// when the rename crosses filesystems.
func move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return err
	}
	info, statErr := os.Stat(src)
	if statErr != nil || info.IsDir() {
		return err
	}
	if copyErr := copyFile(src, dst, info.Mode()); copyErr != nil {
		return copyErr
	}
	return os.Remove(src)
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

// availableName returns dir/name, or the first dir/"name (n)" not yet taken.
func availableName(dir, name string) string {
	candidate := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		if _, err := os.Lstat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
	}
}
