package buildpipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// writeIfChanged writes content to path unless the file already holds
// exactly that content. The write goes through a temp file and a rename,
// so readers never see a half-written module.
func writeIfChanged(path, content string) (changed bool, err error) {
	// #nosec G304 -- path is inside the output tree
	old, err := os.ReadFile(path)
	if err == nil && bytes.Equal(old, []byte(content)) {
		return false, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".nixgen-*")
	if err != nil {
		return false, err
	}
	tmp := f.Name()
	if _, err = f.WriteString(content); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return false, err
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	if err = os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	if err = os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	return true, nil
}
