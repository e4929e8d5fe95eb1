// SPDX-License-Identifier: MPL-2.0

package restore

import (
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "minimal",
			req:  Request{ProjectFile: "/tmp/p.toml", OutputDir: "/out"},
			want: []string{"/tmp/p.toml", "--output", "/out"},
		},
		{
			name: "all options",
			req: Request{
				ProjectFile: "/tmp/p.toml",
				OutputDir:   "/out",
				ConfigFile:  "/feeds.cfg",
				OfflineFeed: "/var/feeds/offline",
				Source:      "https://feed.example",
				Verbosity:   "minimal",
				ExtraArgs:   []string{"--no-cache"},
			},
			want: []string{
				"/tmp/p.toml", "--output", "/out",
				"--config", "/feeds.cfg",
				"--offline-feed", "/var/feeds/offline",
				"--source", "https://feed.example",
				"--verbosity", "minimal",
				"--no-cache",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildArgs(tt.req)
			if len(got) != len(tt.want) {
				t.Fatalf("buildArgs = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("buildArgs = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestNewExecInvokerRequiresCommand(t *testing.T) {
	if _, err := NewExecInvoker(nil, nil); err == nil {
		t.Error("NewExecInvoker with empty command succeeded, want error")
	}
}

func TestExitErrorMessage(t *testing.T) {
	err := &ExitError{Code: 2, Stderr: "unable to resolve demo.tool"}
	if !strings.Contains(err.Error(), "status 2") || !strings.Contains(err.Error(), "unable to resolve") {
		t.Errorf("ExitError message %q missing code or stderr", err.Error())
	}

	bare := &ExitError{Code: 1}
	if bare.Error() != "restore exited with status 1" {
		t.Errorf("bare ExitError message = %q", bare.Error())
	}
}

func TestWriteProject(t *testing.T) {
	fsys := afero.NewMemMapFs()

	p := Project{
		TargetFramework: "net8.0",
		Package:         ProjectPackage{ID: "demo.tool", Version: "1.0.4"},
		OutputPath:      "/root/.stage/abc",
	}
	if err := WriteProject(fsys, "/tmp/restore.toml", p); err != nil {
		t.Fatalf("WriteProject returned error: %v", err)
	}

	data, err := afero.ReadFile(fsys, "/tmp/restore.toml")
	if err != nil {
		t.Fatalf("reading descriptor: %v", err)
	}

	var got Project
	if err := toml.Unmarshal(data, &got); err != nil {
		t.Fatalf("round-tripping descriptor: %v", err)
	}
	if got != p {
		t.Errorf("descriptor round-trip = %+v, want %+v", got, p)
	}
}
