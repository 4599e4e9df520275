// Package cmd implements the attrdata command line.
package cmd

import (
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ssargent/attrdata/pkg/archive"
	"github.com/ssargent/attrdata/pkg/codec"
	"github.com/ssargent/attrdata/pkg/config"
	"github.com/ssargent/attrdata/pkg/schema"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	configPath string
	schemaPath string
	dataDir    string

	cfg    *config.Config
	logger *slog.Logger
	model  *schema.Model
	codec  codec.Codec
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "attrdata",
		Short: "attrdata - schema driven attribute records",
		Long: `attrdata encodes, checks and archives attribute group records
described by a YAML data model.`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(os.Stdout)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", config.GetDefaultConfigPath(), "Configuration file")
	flags.StringVarP(&a.schemaPath, "schema", "s", "", "Data model file (overrides schema_file)")
	flags.StringVarP(&a.dataDir, "data-dir", "d", "", "Archive directory (overrides data_dir)")

	rootCmd.AddCommand(
		newInitCmd(a),
		newGroupsCmd(a),
		newCheckCmd(a),
		newPutCmd(a),
		newGetCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newServeCmd(a),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and the data model. A missing config file
// is only an error when --config was given explicitly.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.DefaultConfig()
	switch {
	case config.ConfigExists(a.configPath):
		loaded, err := config.LoadConfig(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	case cmd.Flags().Changed("config"):
		return errors.Newf("config file does not exist: %s", a.configPath)
	}
	if a.schemaPath != "" {
		cfg.SchemaFile = a.schemaPath
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	a.cfg = cfg

	logger, err := cfg.Logging.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger
	codec.SetLogger(logger)

	if a.codec, err = codec.ForVersion(cfg.CodecVersion); err != nil {
		return err
	}
	if a.model, err = schema.Load(cfg.SchemaFile); err != nil {
		return errors.Wrapf(err, "data model %s", cfg.SchemaFile)
	}
	logger.Debug("data model loaded", "model", a.model.Name(), "file", cfg.SchemaFile)
	return nil
}

func (a *app) group(pid string) (*schema.AttributeGroup, error) {
	g, ok := a.model.Group(pid)
	if !ok {
		return nil, errors.Newf("unknown attribute group %s", pid)
	}
	return g, nil
}

func (a *app) openArchive() (*archive.Archive, error) {
	if err := os.MkdirAll(a.cfg.DataDir, 0750); err != nil {
		return nil, errors.Wrap(err, "failed to create data dir")
	}
	return archive.Open(a.cfg.DataDir, a.logger)
}
