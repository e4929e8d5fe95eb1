// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"toolshed-cli/internal/config"
	"toolshed-cli/internal/pathenv"
	"toolshed-cli/internal/restore"
	"toolshed-cli/internal/shim"
	"toolshed-cli/internal/store"
	"toolshed-cli/internal/tool"
)

// newService builds the lifecycle service from the loaded configuration.
// Every command goes through here so they all share the same wiring.
func newService() (*tool.Service, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := log.Default()
	if cfg.Verbose || verbose {
		logger.SetLevel(log.DebugLevel)
	}

	invoker, err := restore.NewExecInvoker(cfg.RestoreCommand, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up restore command: %w", err)
	}

	fsys := afero.NewOsFs()
	svc := &tool.Service{
		Store: store.New(fsys, cfg.ToolsRoot, invoker,
			store.WithLogger(logger),
			store.WithTargetFramework(cfg.TargetFramework),
		),
		Shims: shim.New(fsys, cfg.ShimsDir,
			shim.WithRunner(cfg.Runner),
			shim.WithLogger(logger),
		),
		Path:   pathenv.New(logger),
		Logger: logger,
	}
	return svc, cfg, nil
}
