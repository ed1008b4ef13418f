package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// Errors returned by the path and listing helpers.
var (
	ErrDirectoryNotFound = errors.New("directory does not exist")
	ErrNoParent          = errors.New("no parent directory found")
	ErrNoFilename        = errors.New("no filename found")
	ErrInvalidUTF8       = errors.New("stream did not contain valid UTF-8")
)

// ImageExtensions lists the extensions (lowercase, with dot) of images the
// reviewer can open.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsImageFile reports whether name has a reviewable image extension.
// The comparison ignores case.
func IsImageFile(name string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(name))]
}

// GetImageFiles returns the full paths of the images directly inside
// directory, sorted. Subdirectories are not descended into.
func GetImageFiles(directory string) ([]string, error) {
	cfg := DefaultRetryConfig()

	if _, err := StatWithRetry(directory, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrDirectoryNotFound
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	entries, err := ReadDirWithRetry(directory, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	images := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		path := filepath.Join(directory, entry.Name())

		// Follows symlinks so a link to an image counts as an image.
		info, err := StatWithRetry(path, cfg)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		images = append(images, path)
	}

	sort.Strings(images)
	return images, nil
}

// ReadTextFile returns the contents of a UTF-8 text file.
func ReadTextFile(path string) (string, error) {
	f, err := OpenWithRetry(path, DefaultRetryConfig())
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("failed to read file: %w", ErrInvalidUTF8)
	}

	return string(data), nil
}

// WriteTextFile writes content to path, creating missing parent directories.
func WriteTextFile(path, content string) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// FileExists reports whether anything exists at path.
func FileExists(path string) bool {
	_, err := StatWithRetry(path, DefaultRetryConfig())
	return err == nil
}

// CreateDirectory creates path and any missing parents.
func CreateDirectory(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// CopyFile copies source to destination, creating missing parent
// directories and replacing an existing destination.
func CopyFile(source, destination string) error {
	if err := ensureParent(destination); err != nil {
		return err
	}
	if err := copyContents(source, destination); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return nil
}

// ParentDirectory returns the directory part of path. A bare file name has
// an empty parent; a root or empty path has none.
func ParentDirectory(path string) (string, error) {
	if path == "" {
		return "", ErrNoParent
	}

	cleaned := filepath.Clean(path)
	if cleaned == filepath.VolumeName(cleaned)+string(filepath.Separator) {
		return "", ErrNoParent
	}
	if !strings.ContainsRune(cleaned, filepath.Separator) {
		return "", nil
	}

	return filepath.Dir(cleaned), nil
}

// FileName returns the final element of path. Paths that end in a root,
// "." or ".." have no file name.
func FileName(path string) (string, error) {
	if path == "" {
		return "", ErrNoFilename
	}

	base := filepath.Base(path)
	switch base {
	case ".", "..", string(filepath.Separator):
		return "", ErrNoFilename
	}
	return base, nil
}

func ensureParent(path string) error {
	parent := filepath.Dir(path)
	if _, err := os.Stat(parent); err == nil {
		return nil
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// copyContents streams source into a temporary file next to destination
// and renames it into place, so a concurrent reader never sees a partial
// copy. The source permission bits are preserved.
func copyContents(source, destination string) (err error) {
	in, err := OpenWithRetry(source, DefaultRetryConfig())
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", source)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destination), ".qc-copy-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), destination)
}
