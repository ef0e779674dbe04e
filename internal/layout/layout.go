// Package layout locates the job archive and the flintstone wrapper inside an
// n5-spark install tree:
//
//	<base>/target/n5-spark-1.0.1-SNAPSHOT.jar
//	<base>/startup-scripts/spark-janelia/<launcher>
//	<base>/startup-scripts/spark-janelia/flintstone/flintstone.sh
//
// Nothing here checks that the files exist; a missing archive or wrapper
// shows up when flintstone runs.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ArchiveName is the file name of the prebuilt job archive.
const ArchiveName = "n5-spark-1.0.1-SNAPSHOT.jar"

// ErrExecutableNotFound is returned when the launcher cannot locate itself.
var ErrExecutableNotFound = errors.New("cannot resolve launcher location")

// Layout is the resolved path pair for one launch. Immutable once built.
type Layout struct {
	ScriptDir   string `json:"script_dir" yaml:"script_dir"`
	BaseDir     string `json:"base_dir" yaml:"base_dir"`
	ArchivePath string `json:"archive" yaml:"archive"`
	WrapperPath string `json:"wrapper" yaml:"wrapper"`
}

// FromScriptDir derives the layout from the directory holding the launcher.
// scriptDir must already be absolute and free of symlinks.
func FromScriptDir(scriptDir string) Layout {
	scriptDir = filepath.Clean(scriptDir)
	base := filepath.Dir(filepath.Dir(scriptDir))
	return Layout{
		ScriptDir:   scriptDir,
		BaseDir:     base,
		ArchivePath: filepath.Join(base, "target", ArchiveName),
		WrapperPath: filepath.Join(scriptDir, "flintstone", "flintstone.sh"),
	}
}

// FromLauncher resolves launcherPath (absolute, or relative to the working
// directory) through symlinks and derives the layout from its directory.
func FromLauncher(launcherPath string) (Layout, error) {
	abs, err := filepath.Abs(launcherPath)
	if err != nil {
		return Layout{}, fmt.Errorf("%w: %w", ErrExecutableNotFound, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Layout{}, fmt.Errorf("%w: %w", ErrExecutableNotFound, err)
	}
	return FromScriptDir(filepath.Dir(resolved)), nil
}

// Resolve derives the layout from the running executable.
func Resolve() (Layout, error) {
	exe, err := os.Executable()
	if err != nil {
		return Layout{}, fmt.Errorf("%w: %w", ErrExecutableNotFound, err)
	}
	return FromLauncher(exe)
}

// WithArchive returns a copy of l pointing at a different archive.
func (l Layout) WithArchive(path string) Layout {
	if path != "" {
		l.ArchivePath = filepath.Clean(path)
	}
	return l
}

// Status reports which of the two artifacts are present on disk. Used for
// diagnostics only.
type Status struct {
	ArchiveExists bool `json:"archive_exists" yaml:"archive_exists"`
	WrapperExists bool `json:"wrapper_exists" yaml:"wrapper_exists"`
}

// Stat checks the artifacts without failing on absence.
func (l Layout) Stat() Status {
	return Status{
		ArchiveExists: fileExists(l.ArchivePath),
		WrapperExists: fileExists(l.WrapperPath),
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
