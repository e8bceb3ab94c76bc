// internal/idfile/paths.go
package idfile

import (
	"os"
	"path/filepath"
)

const appDirName = "sensorlink"

// File names inside the state directory.
const (
	ServerCounterFile = "last-machine-id"
	ClientIDFile      = "machine-id"
)

// DefaultDir is the per-user writable directory holding sensorlink state.
// Falls back to the working directory when the platform reports none.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, appDirName)
	}
	return "."
}
