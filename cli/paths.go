package cli

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/yakaboskic/meta-sanity/pkg"
)

// configPath returns the path of the optional JSON file holding default
// flag values, under the user's configuration directory.
var configPath = sync.OnceValue(func() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, err = os.UserHomeDir()
		if err != nil {
			dir = "."
		} else {
			dir = filepath.Join(dir, ".config")
		}
	}

	return filepath.Join(dir, pkg.Name, "config.json")
})

// cacheDir returns the directory used for profiler output and other
// disposable artifacts.
var cacheDir = sync.OnceValue(func() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}

	return filepath.Join(dir, pkg.Name)
})
