// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"toolshed-cli/internal/restore"
	"toolshed-cli/internal/toolmanifest"
	"toolshed-cli/internal/txn"
)

const testManifest = `
[[commands]]
name = "demo"
entry_point = "tools/demo.dll"
runner = "dotnet"
`

// fakeInvoker simulates the external restore step against an in-memory
// feed. It reads the project descriptor the store wrote, resolves the
// requested version against the feed, and materializes the restore output
// layout under the requested output directory.
type fakeInvoker struct {
	fs   afero.Fs
	feed map[string][]string // id -> available versions
	err  error               // forced failure when set
}

func (f *fakeInvoker) Restore(_ context.Context, req restore.Request) error {
	if f.err != nil {
		return f.err
	}

	data, err := afero.ReadFile(f.fs, req.ProjectFile)
	if err != nil {
		return fmt.Errorf("fake restore: reading project: %w", err)
	}
	// The descriptor is TOML; fish out id and version the crude way to
	// keep the fake independent of the writer.
	id := tomlValue(string(data), "id")
	version := tomlValue(string(data), "version")

	available, ok := f.feed[id]
	if !ok {
		return &restore.ExitError{Code: 1, Stderr: "unable to resolve " + id}
	}
	if version == "*" {
		version = available[len(available)-1]
	} else if !slices.Contains(available, version) {
		return &restore.ExitError{Code: 1, Stderr: fmt.Sprintf("unable to resolve %s %s", id, version)}
	}

	return writeRestoredPackage(f.fs, req.OutputDir, id, version)
}

// writeRestoredPackage lays out a restored package the way the real restore
// command does: a lock manifest at the output root and the package content
// under <output>/<id>/<version>/.
func writeRestoredPackage(fsys afero.Fs, outputDir, id, version string) error {
	lock := fmt.Sprintf(`{
  "version": 1,
  "targets": [
    {"framework": "net8.0", "libraries": [
      {"id": %q, "version": %q, "type": "package",
       "files": ["tools/tool.toml", "tools/demo.dll"]}
    ]}
  ]
}`, id, version)

	if err := afero.WriteFile(fsys, filepath.Join(outputDir, "toolshed.lock.json"), []byte(lock), 0o644); err != nil {
		return err
	}
	content := filepath.Join(outputDir, id, version, "tools")
	if err := afero.WriteFile(fsys, filepath.Join(content, "tool.toml"), []byte(testManifest), 0o644); err != nil {
		return err
	}
	return afero.WriteFile(fsys, filepath.Join(content, "demo.dll"), []byte("binary"), 0o644)
}

func tomlValue(doc, key string) string {
	for _, line := range strings.Split(doc, "\n") {
		k, v, ok := strings.Cut(line, "=")
		if ok && strings.TrimSpace(k) == key {
			return strings.Trim(strings.TrimSpace(v), `'"`)
		}
	}
	return ""
}

func newTestStore(t *testing.T, feed map[string][]string) (*Store, afero.Fs) {
	t.Helper()

	fsys := afero.NewMemMapFs()
	inv := &fakeInvoker{fs: fsys, feed: feed}
	s := New(fsys, "/tools", inv)
	return s, fsys
}

// treeSnapshot collects every path under root, for before/after atomicity
// comparisons.
func treeSnapshot(t *testing.T, fsys afero.Fs, root string) []string {
	t.Helper()

	var paths []string
	err := afero.Walk(fsys, root, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", root, err)
	}
	slices.Sort(paths)
	return paths
}

func installOne(t *testing.T, s *Store, req InstallRequest) string {
	t.Helper()

	var version string
	err := txn.Run(func(tx *txn.Tx) error {
		var err error
		version, err = s.Install(context.Background(), tx, req)
		return err
	})
	if err != nil {
		t.Fatalf("install of %s: %v", req.PackageID, err)
	}
	return version
}

func TestInstallPinnedVersion(t *testing.T) {
	s, fsys := newTestStore(t, map[string][]string{"demo.tool": {"1.0.4"}})

	version := installOne(t, s, InstallRequest{PackageID: "demo.tool", Version: "1.0.4"})
	if version != "1.0.4" {
		t.Errorf("resolved version = %q, want %q", version, "1.0.4")
	}

	versions, err := s.InstalledVersions("demo.tool")
	if err != nil {
		t.Fatalf("InstalledVersions: %v", err)
	}
	if len(versions) != 1 || versions[0] != "1.0.4" {
		t.Errorf("InstalledVersions = %v, want [1.0.4]", versions)
	}

	// The staging area must not survive a completed install.
	if exists, _ := afero.DirExists(fsys, "/tools/.stage"); exists {
		t.Error("staging area left behind after successful install")
	}
}

func TestInstallLatestResolvesHighest(t *testing.T) {
	s, _ := newTestStore(t, map[string][]string{"demo.tool": {"1.0.4", "1.2.0"}})

	version := installOne(t, s, InstallRequest{PackageID: "demo.tool"})
	if version != "1.2.0" {
		t.Errorf("resolved version = %q, want %q", version, "1.2.0")
	}
}

func TestInstallValidation(t *testing.T) {
	s, _ := newTestStore(t, nil)

	for _, id := range []string{"", "a/b", `a\b`} {
		err := txn.Run(func(tx *txn.Tx) error {
			_, err := s.Install(context.Background(), tx, InstallRequest{PackageID: id})
			return err
		})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Install(%q) = %v, want ErrInvalidArgument", id, err)
		}
	}
}

func TestInstallMissingConfigFileFailsBeforeStaging(t *testing.T) {
	s, fsys := newTestStore(t, map[string][]string{"demo.tool": {"1.0.4"}})

	err := txn.Run(func(tx *txn.Tx) error {
		_, err := s.Install(context.Background(), tx, InstallRequest{
			PackageID:  "demo.tool",
			ConfigFile: "/feeds/missing.cfg",
		})
		return err
	})

	var obtainErr *ObtainError
	if !errors.As(err, &obtainErr) {
		t.Fatalf("error = %v, want ObtainError", err)
	}
	if !strings.Contains(err.Error(), "/feeds/missing.cfg") {
		t.Errorf("error %q does not mention the resolved config path", err)
	}

	// The check precedes any mutation: no staging slot, no store root.
	if exists, _ := afero.DirExists(fsys, "/tools"); exists {
		t.Error("store root was created despite pre-mutation failure")
	}
}

func TestInstallRestoreFailureRollsBackCompletely(t *testing.T) {
	s, fsys := newTestStore(t, nil) // empty feed: every restore fails

	before := treeSnapshot(t, fsys, "/")

	err := txn.Run(func(tx *txn.Tx) error {
		_, err := s.Install(context.Background(), tx, InstallRequest{PackageID: "demo.tool", Version: "1.0.4"})
		return err
	})

	var obtainErr *ObtainError
	if !errors.As(err, &obtainErr) {
		t.Fatalf("error = %v, want ObtainError", err)
	}

	after := treeSnapshot(t, fsys, "/")
	if !slices.Equal(before, after) {
		t.Errorf("tree changed across failed install:\nbefore %v\nafter  %v", before, after)
	}
}

func TestInstallConflictLeavesExistingUntouched(t *testing.T) {
	s, fsys := newTestStore(t, map[string][]string{"demo.tool": {"1.0.4"}})

	installOne(t, s, InstallRequest{PackageID: "demo.tool", Version: "1.0.4"})

	marker := "/tools/demo.tool/1.0.4/demo.tool/1.0.4/tools/demo.dll"
	wantContent, err := afero.ReadFile(fsys, marker)
	if err != nil {
		t.Fatalf("reading installed file: %v", err)
	}
	before := treeSnapshot(t, fsys, "/tools")

	err = txn.Run(func(tx *txn.Tx) error {
		_, err := s.Install(context.Background(), tx, InstallRequest{PackageID: "demo.tool", Version: "1.0.4"})
		return err
	})
	if !errors.Is(err, ErrAlreadyInstalled) {
		t.Fatalf("second install = %v, want ErrAlreadyInstalled", err)
	}

	after := treeSnapshot(t, fsys, "/tools")
	if !slices.Equal(before, after) {
		t.Errorf("tree changed across conflicting install:\nbefore %v\nafter  %v", before, after)
	}
	gotContent, err := afero.ReadFile(fsys, marker)
	if err != nil || string(gotContent) != string(wantContent) {
		t.Errorf("installed file content changed across conflicting install")
	}
}

func TestInstallRollsBackPublishedDirOnLaterFailure(t *testing.T) {
	s, fsys := newTestStore(t, map[string][]string{"demo.tool": {"1.0.4"}})

	wantErr := errors.New("shim creation failed")
	err := txn.Run(func(tx *txn.Tx) error {
		if _, err := s.Install(context.Background(), tx, InstallRequest{PackageID: "demo.tool", Version: "1.0.4"}); err != nil {
			return err
		}
		// A later step in the same transaction fails after the publish
		// rename; the retargeted rollback must remove the final
		// directory, not the vacated staging slot.
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}

	if exists, _ := afero.DirExists(fsys, "/tools/demo.tool"); exists {
		t.Error("published package directory survived transaction rollback")
	}
}

func TestUninstallCommitDeletesPackage(t *testing.T) {
	s, fsys := newTestStore(t, map[string][]string{"demo.tool": {"1.0.4"}})
	installOne(t, s, InstallRequest{PackageID: "demo.tool", Version: "1.0.4"})

	err := txn.Run(func(tx *txn.Tx) error {
		return s.Uninstall(tx, "demo.tool", "1.0.4")
	})
	if err != nil {
		t.Fatalf("uninstall: %v", err)
	}

	if exists, _ := afero.DirExists(fsys, "/tools/demo.tool"); exists {
		t.Error("package root survived uninstall")
	}
	if exists, _ := afero.DirExists(fsys, "/tools/.stage"); exists {
		t.Error("staging area left behind after uninstall")
	}
}

func TestUninstallRollbackRestoresPackage(t *testing.T) {
	s, fsys := newTestStore(t, map[string][]string{"demo.tool": {"1.0.4"}})
	installOne(t, s, InstallRequest{PackageID: "demo.tool", Version: "1.0.4"})

	before := treeSnapshot(t, fsys, "/tools")
	wantErr := errors.New("later failure")

	err := txn.Run(func(tx *txn.Tx) error {
		if err := s.Uninstall(tx, "demo.tool", "1.0.4"); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}

	after := treeSnapshot(t, fsys, "/tools")
	if !slices.Equal(before, after) {
		t.Errorf("tree not restored after uninstall rollback:\nbefore %v\nafter  %v", before, after)
	}
}

func TestUninstallMissingVersionIsNoOp(t *testing.T) {
	s, _ := newTestStore(t, nil)

	err := txn.Run(func(tx *txn.Tx) error {
		return s.Uninstall(tx, "demo.tool", "9.9.9")
	})
	if err != nil {
		t.Errorf("uninstall of absent version = %v, want nil", err)
	}
}

func TestInstalledVersionsOrderingAndEmpty(t *testing.T) {
	s, _ := newTestStore(t, map[string][]string{"demo.tool": {"1.0.4", "1.10.0", "1.2.0"}})

	versions, err := s.InstalledVersions("demo.tool")
	if err != nil {
		t.Fatalf("InstalledVersions: %v", err)
	}
	if versions != nil {
		t.Errorf("InstalledVersions before install = %v, want nil", versions)
	}

	for _, v := range []string{"1.10.0", "1.0.4", "1.2.0"} {
		installOne(t, s, InstallRequest{PackageID: "demo.tool", Version: v})
	}

	versions, err = s.InstalledVersions("demo.tool")
	if err != nil {
		t.Fatalf("InstalledVersions: %v", err)
	}
	want := []string{"1.0.4", "1.2.0", "1.10.0"}
	if !slices.Equal(versions, want) {
		t.Errorf("InstalledVersions = %v, want %v", versions, want)
	}
}

func TestPackageIDsSkipsStagingArea(t *testing.T) {
	s, fsys := newTestStore(t, map[string][]string{"demo.tool": {"1.0.4"}})
	installOne(t, s, InstallRequest{PackageID: "demo.tool", Version: "1.0.4"})

	// Simulate an orphaned staging slot from a crashed process.
	if err := fsys.MkdirAll("/tools/.stage/orphan", 0o755); err != nil {
		t.Fatalf("creating orphan: %v", err)
	}

	ids, err := s.PackageIDs()
	if err != nil {
		t.Fatalf("PackageIDs: %v", err)
	}
	if !slices.Equal(ids, []string{"demo.tool"}) {
		t.Errorf("PackageIDs = %v, want [demo.tool]", ids)
	}
}

func TestToolConfiguration(t *testing.T) {
	s, _ := newTestStore(t, map[string][]string{"demo.tool": {"1.0.4"}})
	installOne(t, s, InstallRequest{PackageID: "demo.tool", Version: "1.0.4"})

	cfg, err := s.ToolConfiguration("demo.tool", "1.0.4")
	if err != nil {
		t.Fatalf("ToolConfiguration: %v", err)
	}

	if cfg.CommandName != "demo" {
		t.Errorf("CommandName = %q, want %q", cfg.CommandName, "demo")
	}
	if cfg.Runner != toolmanifest.RunnerDotnet {
		t.Errorf("Runner = %q, want %q", cfg.Runner, toolmanifest.RunnerDotnet)
	}
	want := filepath.Join("/tools", "demo.tool", "1.0.4", "demo.tool", "1.0.4", "tools", "demo.dll")
	if cfg.ExecutablePath != want {
		t.Errorf("ExecutablePath = %q, want %q", cfg.ExecutablePath, want)
	}
}

func TestToolConfigurationNotInstalled(t *testing.T) {
	s, _ := newTestStore(t, nil)

	if _, err := s.ToolConfiguration("demo.tool", "1.0.4"); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("ToolConfiguration = %v, want ErrNotInstalled", err)
	}
}

func TestToolConfigurationMissingSettingsFile(t *testing.T) {
	s, fsys := newTestStore(t, map[string][]string{"demo.tool": {"1.0.4"}})
	installOne(t, s, InstallRequest{PackageID: "demo.tool", Version: "1.0.4"})

	// Rewrite the lock manifest without the settings file entry.
	lock := `{
  "version": 1,
  "targets": [
    {"framework": "net8.0", "libraries": [
      {"id": "demo.tool", "version": "1.0.4", "type": "package",
       "files": ["tools/demo.dll"]}
    ]}
  ]
}`
	if err := afero.WriteFile(fsys, "/tools/demo.tool/1.0.4/toolshed.lock.json", []byte(lock), 0o644); err != nil {
		t.Fatalf("rewriting lock manifest: %v", err)
	}

	_, err := s.ToolConfiguration("demo.tool", "1.0.4")
	var pkgErr *PackageError
	if !errors.As(err, &pkgErr) {
		t.Fatalf("error = %v, want PackageError", err)
	}
	if !strings.Contains(err.Error(), "settings file") {
		t.Errorf("error %q does not mention the settings file", err)
	}
}

func TestToolConfigurationMissingEntryPoint(t *testing.T) {
	s, fsys := newTestStore(t, map[string][]string{"demo.tool": {"1.0.4"}})
	installOne(t, s, InstallRequest{PackageID: "demo.tool", Version: "1.0.4"})

	// The settings file declares an entry point the lock manifest does
	// not list.
	manifest := `
[[commands]]
name = "demo"
entry_point = "tools/other.dll"
runner = "dotnet"
`
	path := "/tools/demo.tool/1.0.4/demo.tool/1.0.4/tools/tool.toml"
	if err := afero.WriteFile(fsys, path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("rewriting settings file: %v", err)
	}

	_, err := s.ToolConfiguration("demo.tool", "1.0.4")
	var pkgErr *PackageError
	if !errors.As(err, &pkgErr) {
		t.Fatalf("error = %v, want PackageError", err)
	}
	if !strings.Contains(err.Error(), "entry point") {
		t.Errorf("error %q does not mention the entry point", err)
	}
}

func TestPathHelpers(t *testing.T) {
	s, _ := newTestStore(t, nil)

	dir, err := s.PackageDir("demo.tool", "1.0.4")
	if err != nil {
		t.Fatalf("PackageDir: %v", err)
	}
	if dir != filepath.Join("/tools", "demo.tool", "1.0.4") {
		t.Errorf("PackageDir = %q", dir)
	}

	if _, err := s.PackageRootDir(""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("PackageRootDir(\"\") = %v, want ErrInvalidArgument", err)
	}
	if _, err := s.PackageDir("demo.tool", "../1.0"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("PackageDir with separator = %v, want ErrInvalidArgument", err)
	}
}
