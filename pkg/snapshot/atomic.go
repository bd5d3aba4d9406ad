package snapshot

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
)

// tempFilePrefix marks in-flight writes; the watcher ignores these files.
const tempFilePrefix = ".radar-tmp-"

// IsTempFile reports whether name is an unfinished atomic write.
func IsTempFile(name string) bool {
	return strings.HasPrefix(filepath.Base(name), tempFilePrefix)
}

// WriteFileAtomic writes data to a temp file next to filename and renames it
// into place, creating parent directories as needed. Readers never observe
// a partially written artifact.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, tempFilePrefix+"*")
	if err != nil {
		return errors.WrapIO("create", dir, err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return errors.WrapIO("write", tmpFile.Name(), err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return errors.WrapIO("sync", tmpFile.Name(), err)
	}
	if err := tmpFile.Close(); err != nil {
		return errors.WrapIO("close", tmpFile.Name(), err)
	}
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return errors.WrapIO("chmod", tmpFile.Name(), err)
	}
	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return errors.WrapIO("rename", filename, err)
	}
	return nil
}
