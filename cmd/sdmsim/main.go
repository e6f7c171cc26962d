package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/sdmsim/internal/config"
	"github.com/san-kum/sdmsim/internal/particulator"
	"github.com/san-kum/sdmsim/internal/scenario"
	"github.com/san-kum/sdmsim/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	theme      string
	configFile string
	preset     string
	nSD        int
	dt         float64
	steps      int
	seed       int64
	backendArg string
	productArg []string
	noSave     bool
	outFile    string
	numRuns    int
	seedStart  int64
	perTick    int
	maxPlots   int

	log      = logrus.New()
	registry = scenario.NewRegistry()
)

// main registers every command and starts the preset browser when no
// subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:   "sdmsim",
		Short: "super-droplet ice microphysics lab",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			log.SetOutput(os.Stderr)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(buildQuiet, theme)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".sdmsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "glacier", fmt.Sprintf("live view theme %v", viz.ThemeNames()))

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a simulation and store its products",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "print the summary without storing the run")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().IntVar(&perTick, "steps-per-frame", 1, "timesteps advanced per frame")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [scenario]",
		Short: "run independent members concurrently and average their products",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addConfigFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 8, "number of members")
	ensembleCmd.Flags().Int64Var(&seedStart, "seed-start", 1, "seed of the first member")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the products of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&maxPlots, "max", 6, "maximum number of products to plot")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run products to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run products to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "list available products",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range registry.ListProducts() {
				fmt.Println(name)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write a configuration file (yaml or toml by extension)",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}
	addConfigFlags(initCmd)

	rootCmd.AddCommand(runCmd, liveCmd, ensembleCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, presetsCmd, productsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&nSD, "n-sd", config.DefaultNSD, "number of super-droplets")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep in seconds")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of timesteps")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 keeps the configured seed)")
	cmd.Flags().StringVar(&backendArg, "backend", "cpu", "compute backend")
	cmd.Flags().StringSliceVar(&productArg, "products", nil, "products to record (default per scenario)")
}

// buildQuiet builds without logging to the terminal the TUI owns.
func buildQuiet(cfg *config.Config) (*particulator.Particulator, error) {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	return registry.Build(cfg, particulator.WithLogger(quiet))
}
