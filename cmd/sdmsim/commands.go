package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/sdmsim/internal/config"
	"github.com/san-kum/sdmsim/internal/particulator"
	"github.com/san-kum/sdmsim/internal/storage"
	"github.com/san-kum/sdmsim/internal/viz"
)

var errConflictingSources = errors.New("--preset and --config are mutually exclusive")

// resolveConfig starts from a preset, a config file or the defaults and
// applies every flag the user set explicitly.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	if preset != "" && configFile != "" {
		return nil, errConflictingSources
	}

	cfg := config.DefaultConfig()
	switch {
	case preset != "":
		if len(args) > 0 {
			cfg = config.GetPreset(args[0], preset)
		} else {
			cfg = config.FindPreset(preset)
		}
		if cfg == nil {
			scenario := "any scenario"
			if len(args) > 0 {
				scenario = args[0]
			}
			return nil, fmt.Errorf("unknown preset %q for %s", preset, scenario)
		}
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("n-sd") {
		cfg.NSD = nSD
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("backend") {
		cfg.Backend = backendArg
	}
	if flags.Changed("products") {
		cfg.Products = productArg
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	p, err := registry.Build(cfg, particulator.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	entry := log.WithFields(logrus.Fields{
		"scenario": cfg.Scenario,
		"n_sd":     cfg.NSD,
		"steps":    cfg.Steps,
		"seed":     p.Seed(),
	})
	entry.Info("running simulation")
	start := time.Now()

	res, err := p.Record(ctx, cfg.Steps)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	entry.WithField("elapsed", elapsed).Info("simulation finished")

	fmt.Printf("completed %d steps (%gs simulated) in %v\n", res.Steps, float64(res.Steps)*res.Dt, elapsed)
	sum, err := p.Summary()
	if err != nil {
		return err
	}
	if err := printSummary(os.Stdout, sum); err != nil {
		return err
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, preset, res)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func printSummary(out io.Writer, s *particulator.Summary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	section := func(title string, readings []particulator.Reading) {
		if len(readings) == 0 {
			return
		}
		fmt.Fprintf(w, "%s\tFINAL\tUNITS\n", title)
		for _, r := range readings {
			name := r.Name
			if r.Derived {
				name += " *"
			}
			fmt.Fprintf(w, "%s\t%.6g\t%s\n", name, r.Value, r.Units)
		}
		fmt.Fprintln(w)
	}
	section("PRODUCT", s.Products)
	section("AMBIENT", s.Ambient)
	section("ATTRIBUTE (MEAN)", s.Attributes)
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "frozen: %d  thawed: %d\n", s.Freezing.Frozen, s.Freezing.Thawed)
	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	p, err := buildQuiet(cfg)
	if err != nil {
		return err
	}

	title := cfg.Scenario
	if preset != "" {
		title += "/" + preset
	}
	m := viz.NewModel(p, title, cfg.Steps,
		viz.WithTheme(theme),
		viz.WithStepsPerTick(perTick),
		viz.WithRebuild(func() (*particulator.Particulator, error) { return buildQuiet(cfg) }),
	)
	final, err := viz.RunLive(m)
	if err != nil {
		return err
	}
	return final.Err()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if numRuns < 1 {
		return fmt.Errorf("--runs must be at least 1, got %d", numRuns)
	}

	ctx, cancel := signalContext()
	defer cancel()

	log.WithFields(logrus.Fields{
		"scenario": cfg.Scenario,
		"runs":     numRuns,
		"steps":    cfg.Steps,
	}).Info("running ensemble")
	start := time.Now()

	ens := particulator.NewEnsemble(registry.Factory(cfg, particulator.WithLogger(log)), numRuns, seedStart)
	results, err := ens.Run(ctx, cfg.Steps)
	if err != nil {
		return err
	}
	fmt.Printf("%d members completed in %v\n\n", len(results), time.Since(start))

	order := results[0].Order
	means := make([][]float64, len(order))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tMEAN FINAL\tUNITS")
	for i, name := range order {
		if means[i], err = particulator.MeanSeries(results, name); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.6g\t%s\n", name, means[i][len(means[i])-1], results[0].Units[name])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for i, name := range order {
		plot(os.Stdout, means[i], "mean "+name)
	}
	return nil
}

func plot(out io.Writer, series []float64, caption string) {
	if len(series) < 2 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, asciigraph.Plot(series,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	))
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tN_SD\tDURATION\tDT\tSEED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%gs\t%gs\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.NSD,
			run.Duration,
			run.Dt,
			run.Seed,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	if len(res.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n", len(res.Times))

	for i, name := range res.Order {
		if i >= maxPlots {
			break
		}
		caption := name
		if u := res.Units[name]; u != "" {
			caption += " [" + u + "]"
		}
		plot(os.Stdout, res.Products[name], caption)
	}
	return nil
}

func output() (io.WriteCloser, error) {
	if outFile == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outFile)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
	res, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}
	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()
	return storage.WriteCSV(w, res)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()
	return storage.ExportJSON(w, meta.Scenario, meta.NSD, res)
}

func listPresets(cmd *cobra.Command, args []string) error {
	scenarios := registry.ListScenarios()
	if len(args) > 0 {
		scenarios = args
	}
	sort.Strings(scenarios)
	for _, s := range scenarios {
		presets := config.ListPresets(s)
		if len(presets) == 0 {
			fmt.Printf("no presets for scenario: %s\n", s)
			continue
		}
		fmt.Printf("presets for %s:\n", s)
		for _, p := range presets {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}
