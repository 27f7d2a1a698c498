package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/nanoforge-io/synthctl/internal/cliconfig"
	"github.com/nanoforge-io/synthctl/internal/domain"
	"github.com/nanoforge-io/synthctl/internal/validate"
	"github.com/nanoforge-io/synthctl/pkg/log"
)

const longHelp = `Drive a microfluidic nanoparticle synthesis instrument.

synthctl validates run parameters against the instrument envelope, writes
them to the controller's register block with verified readback, and drives
the session across its operating modes. By default it talks to an in-memory
simulated controller; pass --sim=false and --addr to use real hardware.`

const exampleUsage = `  synthctl run --tfr 5.0 --frr-aq 3 --frr-sol 1 --volume 2.0 --temp 22 --chip HERRINGBONE --manifold SMALL
  synthctl clean --chip HERRINGBONE --manifold SMALL
  synthctl validate --tfr 0.5 --frr-aq 3 --frr-sol 1 --volume 2.0 --temp 22 --chip HERRINGBONE --manifold SMALL
  synthctl run --sim=false --addr 192.168.0.1 --tfr 5.0 --frr-aq 3 --frr-sol 1 --volume 2.0 --temp 22 --chip BAFFLE --manifold LARGE`

// paramFlags collects the run parameter flags shared by the operation
// commands.
type paramFlags struct {
	tfr      float32
	frrAq    int
	frrSol   int
	volume   float32
	temp     float32
	chip     string
	manifold string
}

func (p *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float32Var(&p.tfr, "tfr", 0, "total flow rate in mL/min")
	cmd.Flags().IntVar(&p.frrAq, "frr-aq", 0, "flow rate ratio, aqueous part")
	cmd.Flags().IntVar(&p.frrSol, "frr-sol", 0, "flow rate ratio, solvent part")
	cmd.Flags().Float32Var(&p.volume, "volume", 0, "target volume in mL")
	cmd.Flags().Float32Var(&p.temp, "temp", 0, "process temperature in C")
	cmd.Flags().StringVar(&p.chip, "chip", "", "mixer chip: HERRINGBONE or BAFFLE")
	cmd.Flags().StringVar(&p.manifold, "manifold", "", "manifold size: SMALL or LARGE")
}

func (p *paramFlags) configuration(mode domain.Mode) (domain.RunConfiguration, error) {
	cfg := domain.RunConfiguration{
		TotalFlowRate: p.tfr,
		FRRAqueous:    p.frrAq,
		FRRSolvent:    p.frrSol,
		TargetVolume:  p.volume,
		Temperature:   p.temp,
		Mode:          mode,
	}
	chip, err := domain.ParseChipID(p.chip)
	if err != nil {
		return cfg, err
	}
	cfg.Chip = chip
	manifold, err := domain.ParseManifoldID(p.manifold)
	if err != nil {
		return cfg, err
	}
	cfg.Manifold = manifold
	return cfg, nil
}

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	zl := cliconfig.Logger()

	root := &cobra.Command{
		Use:           "synthctl",
		Short:         "Drive a microfluidic nanoparticle synthesis instrument",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default $HOME/.synthctl/config.toml)")
	root.PersistentFlags().BoolVar(&cfg.Simulate, "sim", cfg.Simulate, "use the simulated controller")
	root.PersistentFlags().StringVar(&cfg.Addr, "addr", cfg.Addr, "controller IP address")
	root.PersistentFlags().IntVar(&cfg.Rack, "rack", cfg.Rack, "controller rack")
	root.PersistentFlags().IntVar(&cfg.Slot, "slot", cfg.Slot, "controller slot")
	root.PersistentFlags().IntVar(&cfg.DBNumber, "db", cfg.DBNumber, "experiment data block number")
	root.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "transport timeout")
	root.PersistentFlags().DurationVar(&cfg.CommandTimeout, "command-timeout", cfg.CommandTimeout, "session command timeout")
	root.PersistentFlags().DurationVar(&cfg.AbortTimeout, "abort-timeout", cfg.AbortTimeout, "abort stop-pulse budget")
	root.PersistentFlags().StringVar(&cfg.LimitsFile, "limits-file", cfg.LimitsFile, "TOML file overriding validation limits")
	root.PersistentFlags().BoolVar(&cfg.WatchLimits, "watch-limits", cfg.WatchLimits, "hot-reload the limits file on change")
	root.PersistentFlags().StringVar(&cfg.JournalDir, "journal-dir", cfg.JournalDir, "directory for session outcome records")

	loadConfig := func(cmd *cobra.Command) error {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}

		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return err
			}
		}

		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return err
		}

		return cfg.Validate()
	}

	newOperationCmd := func(use, short string, mode domain.Mode) *cobra.Command {
		params := &paramFlags{}
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := loadConfig(cmd); err != nil {
					return err
				}
				if mode == domain.ModeClean {
					// Flow parameters are optional for CLEAN; the session
					// defaults them before validation.
					if params.tfr == 0 && params.temp == 0 {
						zl.Info().Msg("clean: using default flow parameters")
					}
				}
				runCfg, err := params.configuration(mode)
				if err != nil {
					return err
				}
				return runOperation(cmd.Context(), cfg, runCfg, log.NewZerologAdapterWithLogger(zl))
			},
		}
		params.register(cmd)
		return cmd
	}

	root.AddCommand(newOperationCmd("run", "Run a nanoparticle synthesis", domain.ModeRun))
	root.AddCommand(newOperationCmd("clean", "Run a cleaning cycle", domain.ModeClean))
	root.AddCommand(newOperationCmd("pressure-test", "Run a pressure test", domain.ModePressureTest))

	validateParams := &paramFlags{}
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate run parameters without touching the controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			runCfg, err := validateParams.configuration(domain.ModeRun)
			if err != nil {
				return err
			}
			lim := validate.DefaultLimits()
			if cfg.LimitsFile != "" {
				lim, err = validate.LoadLimitsFile(cfg.LimitsFile)
				if err != nil {
					return err
				}
			}
			result := validate.Validate(runCfg, lim)
			if result.Accepted {
				fmt.Println("accepted")
				return nil
			}
			for _, v := range result.Violations {
				fmt.Println("rejected:", v)
			}
			return fmt.Errorf("%d parameter(s) out of range", len(result.Violations))
		},
	}
	validateParams.register(validateCmd)
	root.AddCommand(validateCmd)

	root.AddCommand(&cobra.Command{
		Use:   "history",
		Short: "Show journaled session outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			return showHistory(cmd.Context(), cfg)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		zl.Error().Err(err).Msg("synthctl failed")
		os.Exit(1)
	}
}
