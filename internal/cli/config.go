package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/osano12/TIPE/internal/config"
	"github.com/spf13/cobra"
)

func newGetCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value at a dotted key",
		Example: `  picarx get camera.resolution
  picarx get motor`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := o.openStore(true)
			if err != nil {
				return err
			}

			v, ok := store.Lookup(args[0])
			if !ok {
				return fmt.Errorf("key %q not found", args[0])
			}
			if section, ok := v.(config.Map); ok {
				data, err := config.Encode(section)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.Format(v))
			return nil
		},
	}
}

func newSetCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set the value at a dotted key and save the file",
		Long: `Set parses VALUE as YAML, so 60 is an integer, 0.5 a float, [640, 480] a pair
and anything else a string. Missing sections are created.`,
		Example: `  picarx set motor.max_speed 40
  picarx set camera.resolution "[1280, 720]"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := o.openStore(false)
			if err != nil {
				return err
			}

			value, err := config.ParseValue(args[1])
			if err != nil {
				return err
			}
			if err := store.Set(args[0], value); err != nil {
				return err
			}
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], config.Format(value))
			return nil
		},
	}
}

func newShowCmd(o *options) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var m config.Map
			if defaults {
				m = config.DefaultValues()
			} else {
				store, err := o.openStore(true)
				if err != nil {
					return err
				}
				m = store.Snapshot()
			}

			data, err := config.Encode(m)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Print the built-in defaults instead")
	return cmd
}

func newInitCmd(o *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := os.Stat(o.configFile)
			switch {
			case err == nil && !force:
				return fmt.Errorf("%s already exists (use --force to overwrite)", o.configFile)
			case err != nil && !errors.Is(err, fs.ErrNotExist):
				return err
			}

			store, err := o.openStore(false)
			if err != nil {
				return err
			}
			store.Reset()
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", store.Path())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
