package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/mangashelf/internal/settings"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize mangashelf storage",
		Long: `Create the configuration and data directories, write config.yaml if it is
missing, attach the store, and bring the data version up to date.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, err := a.resolveDataDir()
			if err != nil {
				return sysError(err)
			}

			// setup already wrote a default config.yaml; record an explicit
			// --data-dir so later runs find the same store.
			if a.flags.dataDir != "" && a.cfg.GetString(cfgKeyDataDir) == "" {
				path := filepath.Join(a.configDir, configFileExt)
				if err := updateConfigFile(path, func(c *configFile) { c.DataDir = dataDir }); err != nil {
					return sysError(err)
				}
				a.cfg.Set(cfgKeyDataDir, dataDir)
			}

			if _, err := a.open(); err != nil {
				return err
			}
			dataVersion, err := settings.NewStore(a.backend, a.log).InitDataVersion()
			if err != nil {
				return err
			}

			result := map[string]any{
				"config":      filepath.Join(a.configDir, configFileExt),
				"data":        dataDir,
				"dataVersion": dataVersion,
			}
			return a.printResult(result, "mangashelf initialized\n  config: %s\n  data:   %s\n  data version: %d",
				result["config"], dataDir, dataVersion)
		},
	}
}
