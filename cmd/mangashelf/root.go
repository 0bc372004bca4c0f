package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/mangashelf/internal/library"
	"github.com/mesh-intelligence/mangashelf/internal/logger"
	"github.com/mesh-intelligence/mangashelf/internal/paths"
	"github.com/mesh-intelligence/mangashelf/internal/porter"
	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

// app carries the state shared by one CLI invocation. The backend is
// attached on first use and detached by close.
type app struct {
	flags rootFlags

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configDir string
	cfg       *viper.Viper
	log       *slog.Logger

	backend types.Shelf
	engine  *library.Engine

	// resolver answers import collisions for the prompt strategy. Nil
	// means ask on the terminal.
	resolver porter.Resolver
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut, log: logger.Discard()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "mangashelf",
		Short: "Track the manga you read",
		Long: `mangashelf keeps a local library of manga, manhwa, and other series with
chapter progress, favorites, and tags, and answers filtered, sorted, and
random queries over it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return userError(err)
	})

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output as JSON")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")

	root.AddCommand(newVersionCmd(a))
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newAddCmd(a))
	root.AddCommand(newGetCmd(a))
	root.AddCommand(newUpdateCmd(a))
	root.AddCommand(newDeleteCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newRandomCmd(a))
	root.AddCommand(newFavCmd(a))
	root.AddCommand(newChaptersCmd(a))
	root.AddCommand(newTagCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newSettingsCmd(a))
	root.AddCommand(newTitleTakenCmd(a))
	root.AddCommand(newStatsCmd(a))

	return root
}

// setup resolves the config directory, loads config.yaml, and builds the
// logger. It runs before every command.
func (a *app) setup() error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	a.configDir = configDir
	a.cfg = cfg

	level := cfg.GetString(cfgKeyLogLevel)
	if a.flags.logLevel != "" {
		level = a.flags.logLevel
	}
	a.log = logger.New(logger.Config{
		Writer:      a.errOut,
		Format:      cfg.GetString(cfgKeyLogFormat),
		Environment: cfg.GetString(cfgKeyEnvironment),
		Level:       logger.ParseLevel(level),
	})
	return nil
}

// resolveDataDir follows --data-dir > config.yaml data_dir >
// MANGASHELF_DATA_DIR > $(CWD)/.mangashelf-db.
func (a *app) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(a.flags.dataDir, a.cfg.GetString(cfgKeyDataDir))
}

// close detaches the backend if one was attached. Safe to call twice.
func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	b := a.backend
	a.backend = nil
	a.engine = nil
	return b.Detach()
}
