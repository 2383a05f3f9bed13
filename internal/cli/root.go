// Package cli implements the picarx command line: inspecting and editing the
// robot configuration file, and serving the runtime tuning API.
package cli

import (
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/osano12/TIPE/internal/config"
	"github.com/osano12/TIPE/internal/logging"
	"github.com/spf13/cobra"
)

// options holds the persistent flags and what PersistentPreRunE builds
// from them.
type options struct {
	configFile string
	envPrefix  string
	noEnv      bool
	logLevel   string
	logFile    string
	logJSON    bool

	logger    hclog.Logger
	logCloser io.Closer
}

// NewRootCmd builds the picarx command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "picarx",
		Short:         "Manage the PiCarX robot configuration",
		Long:          `picarx reads, edits and persists the camera, detector, motor and navigation parameters of the robot, and serves them to the controllers at runtime.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lopts := logging.DefaultOptions()
			lopts.Level = o.logLevel
			lopts.File = o.logFile
			lopts.JSON = o.logJSON
			lopts.Console = cmd.ErrOrStderr()
			o.logger, o.logCloser = logging.New(lopts)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&o.configFile, "config", "c", config.DefaultFile, "Path to the configuration file")
	flags.StringVar(&o.envPrefix, "env-prefix", config.DefaultEnvPrefix, "Prefix of environment overrides (PREFIX_SECTION__KEY=value)")
	flags.BoolVar(&o.noEnv, "no-env", false, "Ignore environment overrides")
	flags.StringVar(&o.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&o.logFile, "log-file", "", "Also write logs to this file, rotated by size")
	flags.BoolVar(&o.logJSON, "log-json", false, "Write logs as JSON")

	root.AddCommand(
		newGetCmd(o),
		newSetCmd(o),
		newShowCmd(o),
		newInitCmd(o),
		newServeCmd(o),
	)

	// cobra skips PersistentPostRunE when RunE fails, so the log file is
	// closed around each RunE instead.
	for _, sub := range root.Commands() {
		if sub.RunE == nil {
			continue
		}
		runE := sub.RunE
		sub.RunE = func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := o.closeLog(); err == nil {
					err = cerr
				}
			}()
			return runE(cmd, args)
		}
	}
	return root
}

func (o *options) closeLog() error {
	if o.logCloser == nil {
		return nil
	}
	err := o.logCloser.Close()
	o.logCloser = nil
	return err
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// openStore loads the configuration file. Environment overrides are applied
// only when withEnv is set, so commands that save never persist them.
func (o *options) openStore(withEnv bool) (*config.Store, error) {
	store := config.NewStore(o.configFile, config.WithLogger(o.logger.Named("config")))
	if withEnv && !o.noEnv {
		if err := store.ApplyEnv(o.envPrefix); err != nil {
			return nil, err
		}
	}
	return store, nil
}
