package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/grabsim/internal/automation"
	"github.com/san-kum/grabsim/internal/config"
	"github.com/san-kum/grabsim/internal/export"
	"github.com/san-kum/grabsim/internal/logging"
	"github.com/san-kum/grabsim/internal/scenario"
	"github.com/san-kum/grabsim/internal/sim"
	"github.com/san-kum/grabsim/internal/storage"
	"github.com/san-kum/grabsim/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	// run
	scenarioFile string
	duration     float64
	noSave       bool
	// batch
	jobs int
	// plot
	bodyName string
	// export-json, export-svg
	outPath string
	// sweep, montecarlo
	sweepParams []string
	trials      int
	jitter      float64
	seed        int64

	cfg *config.Config
	log *zap.Logger
)

// errExpectation marks runs whose result did not match the scenario's expect
// block.
var errExpectation = errors.New("expectation failed")

func main() {
	rootCmd := &cobra.Command{
		Use:               "grabsim",
		Short:             "grab, follow and throw rigid bodies",
		PersistentPreRunE: setup,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(cfg, logging.Nop())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".grabsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a preset or scenario file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&scenarioFile, "file", "", "scenario file (yaml)")
	runCmd.Flags().Float64Var(&duration, "time", 0, "override the scenario duration")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot body speeds of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&bodyName, "body", "", "plot only this body")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportCSV(args[0], os.Stdout)
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and samples to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], outPath)
		},
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw body paths of a run, seen from above",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run a scenario over a grid of config values",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&scenarioFile, "file", "", "scenario file (yaml)")
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "name=min:max:steps, repeatable")
	sweepCmd.Flags().IntVar(&jobs, "jobs", runtime.NumCPU(), "concurrent runs")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [preset]",
		Short: "run a scenario under jittered frame timing",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().StringVar(&scenarioFile, "file", "", "scenario file (yaml)")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	monteCarloCmd.Flags().Float64Var(&jitter, "jitter", 0.25, "frame dt jitter as a fraction")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	monteCarloCmd.Flags().IntVar(&jobs, "jobs", runtime.NumCPU(), "concurrent runs")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "run every preset in parallel and check expectations",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVar(&jobs, "jobs", runtime.NumCPU(), "concurrent runs")
	batchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	initConfigCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	interactiveCmd := &cobra.Command{
		Use:   "interactive",
		Short: "drive a scene with the mouse and keyboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(cfg, logging.Nop())
		},
	}

	rootCmd.AddCommand(runCmd, presetsCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, batchCmd, sweepCmd, monteCarloCmd, initConfigCmd, interactiveCmd)

	err := rootCmd.Execute()
	if log != nil {
		_ = log.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}

// setup loads the config and builds the logger shared by every command.
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	log = l
	return nil
}

func loadScenario(args []string) (*scenario.Scenario, []byte, error) {
	switch {
	case scenarioFile != "" && len(args) > 0:
		return nil, nil, fmt.Errorf("give a preset or --file, not both")
	case scenarioFile != "":
		return scenario.Load(scenarioFile)
	case len(args) == 1:
		return scenario.Preset(args[0])
	default:
		return nil, nil, fmt.Errorf("no scenario (available presets: %v)", scenario.PresetNames())
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, src, err := loadScenario(args)
	if err != nil {
		return err
	}
	if duration > 0 {
		sc.Duration = duration
	}

	scene, err := scenario.Build(sc, cfg, log)
	if err != nil {
		return err
	}

	fmt.Printf("running %s...\n", sc.Name)
	start := time.Now()
	res, err := scene.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n", time.Since(start))

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(runInfo(scene, src), res)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	printResult(scene, res)

	if err := scene.Check(res); err != nil {
		fmt.Printf("\nexpectation: FAIL\n%v\n", err)
		return errExpectation
	}
	if sc.Expect != nil {
		fmt.Println("\nexpectation: ok")
	}
	return nil
}

func runInfo(scene *scenario.Scene, src []byte) storage.RunInfo {
	sc := scene.SimConfig()
	return storage.RunInfo{
		Scenario: scene.Scenario.Name,
		Source:   src,
		FrameDt:  sc.FrameDt,
		FixedDt:  sc.FixedDt,
		Duration: sc.Duration,
	}
}

func printResult(scene *scenario.Scene, res *sim.Result) {
	fmt.Printf("frames: %d\n", res.Frames)
	fmt.Printf("steps: %d\n", res.Steps)
	for _, err := range res.Errors {
		fmt.Printf("error: %v\n", err)
	}

	if len(res.Releases) > 0 {
		fmt.Println("\nreleases:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  TIME\tDRIVER\tBODY\tSPEED\tVELOCITY")
		for _, r := range res.Releases {
			fmt.Fprintf(w, "  %.3fs\t%s\t%s\t%.4f\t(%.3f, %.3f, %.3f)\n",
				r.Time, r.Driver, scene.BodyName(r.Body), r.Speed(),
				r.Velocity[0], r.Velocity[1], r.Velocity[2])
		}
		w.Flush()
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, res.Metrics[name])
	}
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		_, src, err := scenario.Preset(args[0])
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(src)
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDURATION\tDESCRIPTION")
	for _, name := range scenario.PresetNames() {
		p := scenario.Presets[name]
		fmt.Fprintf(w, "%s\t%.2fs\t%s\n", name, p.Duration, p.Description)
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tSTEPS\tRELEASES\tFINGERPRINT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%d\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Steps,
			len(run.Releases),
			run.Fingerprint,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(samples))

	var order []string
	speeds := make(map[string][]float64)
	for _, s := range samples {
		if bodyName != "" && s.Body != bodyName {
			continue
		}
		if _, ok := speeds[s.Body]; !ok {
			order = append(order, s.Body)
		}
		speeds[s.Body] = append(speeds[s.Body], s.Speed())
	}
	if len(order) == 0 {
		return fmt.Errorf("no samples for body %q", bodyName)
	}

	maxPlots := 6
	if len(order) > maxPlots {
		order = order[:maxPlots]
	}
	for _, name := range order {
		data := speeds[name]
		if len(data) < 2 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" speed (m/s) per physics step"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	for _, r := range meta.Releases {
		fmt.Printf("release at %.3fs: %s threw %s at %.4f m/s\n", r.Time, r.Driver, r.Body, r.Speed)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	names := scenario.PresetNames()
	scenes := make([]*scenario.Scene, len(names))
	sources := make([][]byte, len(names))
	ens := sim.NewEnsemble(jobs)

	for i, name := range names {
		sc, src, err := scenario.Preset(name)
		if err != nil {
			return err
		}
		scene, err := scenario.Build(sc, cfg, log)
		if err != nil {
			return err
		}
		scenes[i], sources[i] = scene, src
		ens.Add(sim.Job{Name: name, Sim: scene.Sim, Config: scene.SimConfig()})
	}

	start := time.Now()
	results, err := ens.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("ran %d scenarios in %v\n\n", len(names), time.Since(start))

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	failed := 0
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tSTEPS\tRELEASES\tMAX SPEED\tCHECK\tRUN")
	for i, res := range results {
		status := "ok"
		if err := scenes[i].Check(res); err != nil {
			status = "FAIL"
			failed++
			log.Warn("expectation failed", zap.String("scenario", names[i]), zap.Error(err))
		}
		runID := "-"
		if st != nil {
			if runID, err = st.Save(runInfo(scenes[i], sources[i]), res); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%s\t%s\n",
			names[i], res.Steps, len(res.Releases), res.Metrics["max_throw_speed"], status, runID)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d scenarios", errExpectation, failed, len(names))
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	svg := export.TrajectorySVG(samples, meta.ReleaseEvents(), 800, 600)
	if svg == "" {
		return fmt.Errorf("no data to export")
	}
	if outPath == "" {
		_, err = fmt.Fprintln(os.Stdout, svg)
		return err
	}
	return os.WriteFile(outPath, []byte(svg), 0644)
}

// parseParam reads name=min:max:steps.
func parseParam(spec string) (string, []float64, error) {
	name, rng, ok := strings.Cut(spec, "=")
	if !ok {
		return "", nil, fmt.Errorf("bad --param %q, want name=min:max:steps", spec)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("bad --param %q, want name=min:max:steps", spec)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, err
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, err
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", nil, err
	}
	return name, automation.Linspace(lo, hi, n), nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	sc, _, err := loadScenario(args)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("no --param given (available: %v)", automation.Params())
	}

	names := make([]string, 0, len(sweepParams))
	values := make([][]float64, 0, len(sweepParams))
	for _, spec := range sweepParams {
		name, vals, err := parseParam(spec)
		if err != nil {
			return err
		}
		names = append(names, name)
		values = append(values, vals)
	}
	combos, err := automation.Grid(names, values)
	if err != nil {
		return err
	}

	out, err := automation.NewRunner(sc, cfg, jobs, log).Sweep(cmd.Context(), combos)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\tRELEASES\tSPEED\tCHECK")
	for _, o := range out {
		row := make([]string, 0, len(names)+3)
		for _, name := range names {
			row = append(row, strconv.FormatFloat(o.Params[name], 'f', 4, 64))
		}
		row = append(row, strconv.Itoa(len(o.Result.Releases)), fmt.Sprintf("%.4f", o.Speed()), checkStatus(o.Check))
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	sc, _, err := loadScenario(args)
	if err != nil {
		return err
	}

	mc := automation.MonteCarloConfig{Trials: trials, Jitter: jitter, Seed: seed}
	out, err := automation.NewRunner(sc, cfg, jobs, log).MonteCarlo(cmd.Context(), mc)
	if err != nil {
		return err
	}

	speeds := make([]float64, 0, len(out))
	for _, o := range out {
		if len(o.Result.Releases) > 0 {
			speeds = append(speeds, o.Speed())
		}
	}
	if len(speeds) > 1 {
		fmt.Println(asciigraph.Plot(speeds,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("first release speed (m/s) per trial"),
		))
		fmt.Println()
	}

	s := automation.Summarize(out)
	fmt.Printf("trials: %d\n", s.Runs)
	fmt.Printf("passed: %d\n", s.Passed)
	fmt.Printf("released: %d\n", s.Released)
	if s.Released > 0 {
		fmt.Printf("speed: min %.4f  max %.4f  mean %.4f  stddev %.4f\n", s.Min, s.Max, s.Mean, s.StdDev)
	}
	return nil
}

func checkStatus(err error) string {
	if err != nil {
		return "FAIL"
	}
	return "ok"
}
