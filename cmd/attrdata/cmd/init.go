package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ssargent/attrdata/pkg/config"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a default configuration file. --data-dir and --schema are
stored in it when given.

Examples:
  attrdata init --data-dir=./data --schema=./model.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ConfigExists(a.configPath) && !force {
				return errors.Newf("config file %s already exists (use --force to overwrite)", a.configPath)
			}
			cfg, err := config.BootstrapConfig(a.configPath, a.dataDir, a.schemaPath)
			if err != nil {
				return err
			}
			cmd.Printf("Wrote %s\n", a.configPath)
			cmd.Printf("Data directory: %s\n", cfg.DataDir)
			cmd.Printf("Data model: %s\n", cfg.SchemaFile)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	return initCmd
}
