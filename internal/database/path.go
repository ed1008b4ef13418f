package database

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
)

// FileName is the database file name inside the per-user data directory.
const FileName = "qc_analytics.sqlite"

// Application identifier parts (qualifier, organization, application).
const (
	appQualifier    = "com"
	appOrganization = "qc"
	appName         = "imagechecker"
)

// Resolver determines where the database file lives. The zero value is not
// usable; use DefaultResolver.
type Resolver struct {
	GOOS     string
	HomeDir  func() (string, error)
	DataHome func() string
	Getenv   func(string) string
	Getwd    func() (string, error)
}

// DefaultResolver resolves against the running platform.
func DefaultResolver() Resolver {
	return Resolver{
		GOOS:     runtime.GOOS,
		HomeDir:  os.UserHomeDir,
		DataHome: func() string { return xdg.DataHome },
		Getenv:   os.Getenv,
		Getwd:    os.Getwd,
	}
}

// ResolvePath returns the database path for the current user.
func ResolvePath() string {
	return DefaultResolver().Resolve()
}

// Resolve returns <data_dir>/qc_analytics.sqlite, or qc_analytics.sqlite in
// the working directory when no per-user data directory can be determined.
// It never fails.
func (r Resolver) Resolve() string {
	if dir, ok := r.dataDir(); ok {
		return filepath.Join(dir, FileName)
	}

	if wd, err := r.Getwd(); err == nil {
		return filepath.Join(wd, FileName)
	}
	return FileName
}

// dataDir mirrors the platform conventions for project data directories:
//
//	linux:   $XDG_DATA_HOME/imagechecker
//	darwin:  ~/Library/Application Support/com.qc.imagechecker
//	windows: %APPDATA%\qc\imagechecker\data
func (r Resolver) dataDir() (string, bool) {
	home, err := r.HomeDir()
	if err != nil || home == "" {
		return "", false
	}

	switch r.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support",
			appQualifier+"."+appOrganization+"."+appName), true
	case "windows":
		base := r.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(base, appOrganization, appName, "data"), true
	default:
		base := r.DataHome()
		if base == "" || !filepath.IsAbs(base) {
			base = filepath.Join(home, ".local", "share")
		}
		return filepath.Join(base, appName), true
	}
}
