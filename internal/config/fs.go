package config

import "os"

// isNotExist reports whether err indicates a missing file, unwrapping the
// way os.IsNotExist expects.
func isNotExist(err error) bool {
	return os.IsNotExist(err)
}
