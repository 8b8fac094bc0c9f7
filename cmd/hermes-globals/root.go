package main

import (
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alexmckenley/hermes/pkg/driver"
	"github.com/alexmckenley/hermes/pkg/vm"
)

type options struct {
	configPath   string
	logLevel     string
	symbol       bool
	maxHeapCells int
}

func newRootCommand(version string) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "hermes-globals",
		Short:        "Bootstrap a runtime global object and inspect it",
		Version:      version,
		SilenceUsage: true,
	}
	opts.bind(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "dump",
			Short: "List every global binding with its attributes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				h, err := opts.session(cmd)
				if err != nil {
					return err
				}
				if err := h.Verify(); err != nil {
					return err
				}
				return h.Dump(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "parse-int <text> [radix]",
			Short: "Run the global parseInt",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				h, err := opts.session(cmd)
				if err != nil {
					return err
				}
				var radix *float64
				if len(args) == 2 {
					r, err := strconv.ParseFloat(args[1], 64)
					if err != nil {
						return fmt.Errorf("radix %q is not a number", args[1])
					}
					radix = &r
				}
				n, err := h.ParseInt(args[0], radix)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), vm.NumberToString(n))
				return err
			},
		},
		&cobra.Command{
			Use:   "parse-float <text>",
			Short: "Run the global parseFloat",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				h, err := opts.session(cmd)
				if err != nil {
					return err
				}
				n, err := h.ParseFloat(args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), vm.NumberToString(n))
				return err
			},
		},
	)
	return root
}

func (o *options) bind(flags *pflag.FlagSet) {
	flags.StringVarP(&o.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&o.logLevel, "log-level", "", "log level (overrides the config file)")
	flags.BoolVar(&o.symbol, "symbol", true, "install the Symbol constructor")
	flags.IntVar(&o.maxHeapCells, "max-heap-cells", 0, "heap cell limit, 0 for unlimited")
}

// config merges the config file with flags the user set explicitly.
func (o *options) config(flags *pflag.FlagSet) (driver.Config, error) {
	cfg := driver.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = driver.LoadConfig(o.configPath); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("symbol") {
		cfg.ES6Symbol = o.symbol
	}
	if flags.Changed("max-heap-cells") {
		cfg.MaxHeapCells = o.maxHeapCells
	}
	return cfg, cfg.Validate()
}

func (o *options) session(cmd *cobra.Command) (*driver.Hermes, error) {
	cfg, err := o.config(cmd.Flags())
	if err != nil {
		return nil, err
	}
	cfg.Stdout = cmd.OutOrStdout()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	log.WithField("config", o.configPath).Debug("starting session")
	return driver.NewHermes(cfg)
}
