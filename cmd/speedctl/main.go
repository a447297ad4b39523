package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/speedctl/internal/analysis"
	"github.com/san-kum/speedctl/internal/automation"
	"github.com/san-kum/speedctl/internal/config"
	"github.com/san-kum/speedctl/internal/export"
	"github.com/san-kum/speedctl/internal/optim"
	"github.com/san-kum/speedctl/internal/param"
	"github.com/san-kum/speedctl/internal/sim"
	"github.com/san-kum/speedctl/internal/storage"
	"github.com/san-kum/speedctl/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	overrides  []string
	dt         float64
	duration   float64
	runAll     bool
	noSave     bool
	verbose    bool
	columns    []string
	scenario   string
	metricName string
	pngPath    string
	svgPath    string
	htmlPath   string
	jsonPath   string
	sweeps     []string

	analyzeColumn string
)

// main registers the speedctl commands and executes the root command,
// exiting with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "speedctl",
		Short:         "multirotor speed and position controller lab",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".speedctl", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "fly a scenario and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addTuningFlags(runCmd)
	runCmd.Flags().BoolVar(&runAll, "all", false, "fly every scenario in parallel")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "fly a scenario with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addTuningFlags(liveCmd)
	liveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}
	listCmd.Flags().StringVar(&scenario, "scenario", "", "only runs of this scenario")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run columns in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&columns, "column", []string{"x", "y", "z"}, "columns to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as png, svg, html or json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringSliceVar(&columns, "column", []string{"x", "y", "z"}, "columns to chart")
	exportCmd.Flags().StringVar(&pngPath, "png", "", "write a png chart")
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "write an svg chart")
	exportCmd.Flags().StringVar(&htmlPath, "html", "", "write an interactive html chart")
	exportCmd.Flags().StringVar(&jsonPath, "json", "", "write metadata and series as json (- for stdout)")

	bestCmd := &cobra.Command{
		Use:   "best [scenario]",
		Short: "show the stored run with the lowest metric",
		Args:  cobra.ExactArgs(1),
		RunE:  bestRun,
	}
	bestCmd.Flags().StringVar(&metricName, "metric", "position_rms", "metric to minimise")

	tuneCmd := &cobra.Command{
		Use:   "tune [scenario]",
		Short: "grid search gains against a scenario metric",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneGains,
	}
	addTuningFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&sweeps, "sweep", nil, "swept parameter (name=v1,v2 or name=start:stop:step)")
	tuneCmd.Flags().StringVar(&metricName, "metric", "position_rms", "metric to minimise")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a tracking error",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeColumn, "column", "x", "measured column; its ref_ column is subtracted when present")

	batchCmd := &cobra.Command{
		Use:   "batch [script.yaml]",
		Short: "fly a scripted sequence of scenarios",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "print the parameters sent to the controller",
		RunE:  listParams,
	}
	paramsCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	paramsCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	paramsCmd.Flags().StringArrayVar(&overrides, "set", nil, "override a parameter (name=value)")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "start from preset")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list tuning presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMODE\tDURATION\tDESCRIPTION")
			for _, name := range sim.Scenarios() {
				sc, _ := sim.Lookup(name)
				fmt.Fprintf(w, "%s\t%s\t%.0fs\t%s\n", sc.Name, sc.In, sc.Duration, sc.Description)
			}
			w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, bestCmd, tuneCmd, analyzeCmd, batchCmd, deleteCmd,
		paramsCmd, initCmd, presetsCmd, scenariosCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addTuningFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "override a parameter (name=value)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "control period")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration (0 uses the scenario's)")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger()
	ctx, cancel := signalContext()
	defer cancel()

	names := []string{cfg.Scenario}
	if len(args) == 1 {
		names = []string{args[0]}
	}
	if runAll {
		names = sim.Scenarios()
	}

	jobs := make([]sim.Job, 0, len(names))
	for _, name := range names {
		sc, ok := sim.Lookup(name)
		if !ok {
			return errors.Errorf("unknown scenario %q (available: %s)", name, strings.Join(sim.Scenarios(), ", "))
		}
		r, err := newRunner(cfg, sc, log)
		if err != nil {
			return err
		}
		jobs = append(jobs, sim.Job{Runner: r, Scenario: sc})
	}

	results, err := sim.RunAll(ctx, jobs, sim.Config{Dt: cfg.Dt, Duration: cfg.Duration})
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noSave {
		if st, err = openStore(); err != nil {
			return err
		}
		defer st.Close()
	}
	for _, res := range results {
		if err := report(st, cfg, preset, res); err != nil {
			return err
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name := cfg.Scenario
	if len(args) == 1 {
		name = args[0]
	}
	sc, ok := sim.Lookup(name)
	if !ok {
		return errors.Errorf("unknown scenario %q", name)
	}
	// The live view owns the terminal, so only errors are logged.
	r, err := newRunner(cfg, sc, newQuietLogger())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	res, err := tui.Run(ctx, r, sc, sim.Config{Dt: cfg.Dt, Duration: cfg.Duration})
	if err != nil {
		return err
	}
	if res == nil {
		fmt.Println("run aborted")
		return nil
	}

	var st *storage.Store
	if !noSave {
		if st, err = openStore(); err != nil {
			return err
		}
		defer st.Close()
	}
	return report(st, cfg, preset, res)
}

// report prints the result and, when st is non-nil, stores it.
func report(st *storage.Store, cfg *config.Config, presetName string, res *sim.Result) error {
	fmt.Printf("%s: %d cycles, %d rejected\n", res.Scenario, len(res.Samples), res.Rejections)
	for _, name := range sortedKeys(res.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, res.Metrics[name])
	}
	if st == nil || len(res.Samples) == 0 {
		return nil
	}
	id, err := st.Save(storage.RunMetadata{
		Scenario: res.Scenario,
		Plugin:   cfg.Plugin,
		Preset:   presetName,
		Dt:       cfg.Dt,
		Duration: res.Samples[len(res.Samples)-1].T + cfg.Dt,
	}, res)
	if err != nil {
		return err
	}
	fmt.Printf("  run id: %s\n", id)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListScenario(scenario)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tPRESET\tDT\tSAMPLES\tREJECTED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.3fs\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Preset,
			run.Dt,
			run.Samples,
			run.Rejections,
		)
	}
	return w.Flush()
}

// chartFor builds a chart of the requested columns, adding the matching
// reference column next to each measured one.
func chartFor(st *storage.Store, runID string) (*storage.RunMetadata, export.Chart, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, export.Chart{}, err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return nil, export.Chart{}, err
	}

	c := export.Chart{
		Title:  fmt.Sprintf("%s %s", meta.Scenario, meta.ID[:8]),
		XLabel: "t [s]",
		X:      series.Column("t"),
	}
	for _, col := range columns {
		y := series.Column(col)
		if y == nil {
			return nil, export.Chart{}, errors.Errorf("unknown column %q", col)
		}
		c.Lines = append(c.Lines, export.Line{Name: col, Y: y})
		if ref := series.Column("ref_" + col); ref != nil {
			c.Lines = append(c.Lines, export.Line{Name: "ref_" + col, Y: ref})
		}
	}
	return meta, c, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, c, err := chartFor(st, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", meta.Samples)

	graph, err := export.ASCII(c, 80, 15)
	if err != nil {
		return err
	}
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	if pngPath == "" && svgPath == "" && htmlPath == "" && jsonPath == "" {
		return errors.New("nothing to export: pass --png, --svg, --html or --json")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runID := args[0]
	if jsonPath != "" {
		if err := writeJSON(st, runID); err != nil {
			return err
		}
	}
	if pngPath == "" && svgPath == "" && htmlPath == "" {
		return nil
	}

	_, c, err := chartFor(st, runID)
	if err != nil {
		return err
	}
	for _, path := range []string{pngPath, svgPath} {
		if path == "" {
			continue
		}
		if err := export.Image(c, path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	if htmlPath != "" {
		f, err := os.Create(htmlPath)
		if err != nil {
			return errors.Wrap(err, "create html")
		}
		defer f.Close()
		if err := export.HTML(f, c); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", htmlPath)
	}
	return nil
}

func writeJSON(st *storage.Store, runID string) error {
	if jsonPath == "-" {
		return st.ExportJSON(os.Stdout, runID)
	}
	if err := os.MkdirAll(filepath.Dir(jsonPath), 0755); err != nil {
		return errors.Wrap(err, "create json dir")
	}
	f, err := os.Create(jsonPath)
	if err != nil {
		return errors.Wrap(err, "create json")
	}
	defer f.Close()
	if err := st.ExportJSON(f, runID); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", jsonPath)
	return nil
}

func bestRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id, v, err := st.Best(args[0], metricName)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s=%.6f\n", id, metricName, v)
	return nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	if len(sweeps) == 0 {
		return errors.New("nothing to tune: pass at least one --sweep")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, ok := sim.Lookup(args[0])
	if !ok {
		return errors.Errorf("unknown scenario %q", args[0])
	}
	axes := make([]optim.Axis, 0, len(sweeps))
	for _, s := range sweeps {
		ax, err := optim.ParseAxis(s)
		if err != nil {
			return err
		}
		axes = append(axes, ax)
	}
	g := optim.NewGridSearch(axes...)
	fmt.Printf("tuning %s over %d points...\n", sc.Name, g.Size())

	ctx, cancel := signalContext()
	defer cancel()
	log := newQuietLogger()
	best, err := g.Search(ctx, sc, sim.Config{Dt: cfg.Dt, Duration: cfg.Duration},
		func(ps []param.Parameter) (*sim.Runner, error) { return newRunner(cfg, sc, log, ps...) },
		metricName)
	if err != nil {
		return err
	}

	fmt.Printf("best %s=%.6f (%d tried, %d failed)\n", metricName, best.Value, best.Tried, best.Failed)
	for _, p := range best.Params {
		fmt.Printf("  --set %s=%s\n", p.Name, p.Value)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runID := args[0]
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	data := series.Column(analyzeColumn)
	if data == nil {
		return errors.Errorf("unknown column %q", analyzeColumn)
	}
	caption := "power spectrum (" + analyzeColumn + ")"
	if ref := series.Column("ref_" + analyzeColumn); ref != nil {
		if data, err = analysis.Error(data, ref); err != nil {
			return err
		}
		caption = "power spectrum (" + analyzeColumn + " error)"
	}

	spectrum, err := analysis.PowerSpectrum(data, meta.Dt)
	if err != nil {
		return err
	}
	low := spectrum.Below(5)

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Scenario)
	graph, err := export.ASCII(export.Chart{
		Title: caption,
		X:     low.Freq,
		Lines: []export.Line{{Name: "power", Y: low.Power}},
	}, 80, 15)
	if err != nil {
		return err
	}
	fmt.Println(graph)
	fmt.Println()

	freq, _ := spectrum.Dominant()
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", analysis.Period(freq))
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	script, err := automation.LoadScript(args[0])
	if err != nil {
		return err
	}
	var st *storage.Store
	if !noSave {
		if st, err = openStore(); err != nil {
			return err
		}
		defer st.Close()
	}

	ctx, cancel := signalContext()
	defer cancel()
	log := newLogger()
	fmt.Printf("running %s (%d steps)\n", script.Name, len(script.Steps))
	_, err = automation.Run(ctx, script,
		func(step automation.Step, cfg *config.Config, sc sim.Scenario) (*sim.Runner, error) {
			extra, err := config.ParseOverrides(step.Set)
			if err != nil {
				return nil, err
			}
			return newRunner(cfg, sc, log, extra...)
		},
		func(i int, step automation.Step, cfg *config.Config, res *sim.Result) error {
			fmt.Printf("[%d/%d] ", i+1, len(script.Steps))
			return report(st, cfg, step.Preset, res)
		})
	return err
}

func deleteRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

func listParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ps, err := parameters(cfg)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tVALUE")
	for _, p := range ps {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Value.Kind(), p.Value)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return errors.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

// parameters flattens cfg and applies --set overrides on top.
func parameters(cfg *config.Config) ([]param.Parameter, error) {
	ps := cfg.Parameters()
	extra, err := config.ParseOverrides(overrides)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return ps, nil
	}
	idx := make(map[string]int, len(ps))
	for i, p := range ps {
		idx[p.Name] = i
	}
	for _, p := range extra {
		if i, ok := idx[p.Name]; ok {
			ps[i] = p
			continue
		}
		ps = append(ps, p)
	}
	return ps, nil
}
