// SPDX-License-Identifier: MPL-2.0

package toolmanifest

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

const validManifest = `
[[commands]]
name = "mytool"
entry_point = "tools/mytool.dll"
runner = "dotnet"
`

func TestParseValidManifest(t *testing.T) {
	cfg, err := Parse([]byte(validManifest))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if cfg.CommandName != "mytool" {
		t.Errorf("CommandName = %q, want %q", cfg.CommandName, "mytool")
	}
	if cfg.EntryPoint != "tools/mytool.dll" {
		t.Errorf("EntryPoint = %q, want %q", cfg.EntryPoint, "tools/mytool.dll")
	}
	if cfg.Runner != RunnerDotnet {
		t.Errorf("Runner = %q, want %q", cfg.Runner, RunnerDotnet)
	}
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantMsg  string
	}{
		{
			name:     "malformed toml",
			manifest: `[[commands` + "\n",
			wantMsg:  "invalid tool manifest",
		},
		{
			name:     "no commands",
			manifest: ``,
			wantMsg:  "no command declared",
		},
		{
			name: "multiple commands",
			manifest: validManifest + `
[[commands]]
name = "other"
entry_point = "tools/other.dll"
runner = "dotnet"
`,
			wantMsg: "exactly one is supported",
		},
		{
			name: "whitespace name",
			manifest: `
[[commands]]
name = "   "
entry_point = "tools/mytool.dll"
runner = "dotnet"
`,
			wantMsg: "command name is empty",
		},
		{
			name: "invalid filename characters",
			manifest: `
[[commands]]
name = "my/tool"
entry_point = "tools/mytool.dll"
runner = "dotnet"
`,
			wantMsg: "invalid in a filename",
		},
		{
			name: "empty entry point",
			manifest: `
[[commands]]
name = "mytool"
entry_point = ""
runner = "dotnet"
`,
			wantMsg: "entry point is empty",
		},
		{
			name: "unsupported runner",
			manifest: `
[[commands]]
name = "mytool"
entry_point = "tools/mytool.dll"
runner = "java"
`,
			wantMsg: "not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.manifest))
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			if !errors.Is(err, ErrInvalidManifest) {
				t.Errorf("error %v does not wrap ErrInvalidManifest", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/pkg/tool.toml", []byte(validManifest), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := Load(fsys, "/pkg/tool.toml")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.CommandName != "mytool" {
		t.Errorf("CommandName = %q, want %q", cfg.CommandName, "mytool")
	}

	if _, err := Load(fsys, "/pkg/missing.toml"); err == nil {
		t.Error("Load of missing file succeeded, want error")
	}
}
