package setup

import (
	"os"
	"path/filepath"
)

// ResolveServerDir picks the dedicated server install directory: the flag
// value if set, otherwise the environment default. The directory must exist.
func ResolveServerDir(flagValue, envValue string) (string, error) {
	dir := flagValue
	if dir == "" {
		dir = envValue
	}
	if dir == "" {
		return "", &EnvironmentError{
			Message: "no dedicated server install given; set --dst-server-dir or DST_SERVER_DIR",
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", &EnvironmentError{Path: dir, Message: "dedicated server directory does not exist", Err: err}
	}
	if !info.IsDir() {
		return "", &EnvironmentError{Path: dir, Message: "dedicated server path is not a directory"}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir, nil
	}
	return abs, nil
}
