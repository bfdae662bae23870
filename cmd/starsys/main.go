package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/starsys/internal/config"
	"github.com/san-kum/starsys/internal/experiment"
	"github.com/san-kum/starsys/internal/export"
	"github.com/san-kum/starsys/internal/integrators"
	"github.com/san-kum/starsys/internal/storage"
	"github.com/san-kum/starsys/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	method     string
	stepSize   float64
	rtol       float64
	atol       float64
	t0         float64
	tf         float64
	noSave     bool
	plotBody   int
	plotWidth  int
	outFile    string
	svgFile    string
	steps      []float64
	methods    []string
	workers    int
)

// main registers the starsys commands and exits with status 1 if the
// command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "starsys",
		Short:         "planar n-body gravity simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".starsys", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scenario",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot body coordinates of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotBody, "body", -1, "plot only this body (default all)")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "chart width")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&svgFile, "svg", "", "also draw the orbits to this SVG file")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare methods and step sizes on one scenario",
		Args:  cobra.NoArgs,
		RunE:  compareMethods,
	}
	addScenarioFlags(compareCmd)
	compareCmd.Flags().Float64SliceVar(&steps, "steps", []float64{0.04, 0.02, 0.01}, "step sizes")
	compareCmd.Flags().StringSliceVar(&methods, "methods", []string{"midpoint", "adaptive"}, "methods")
	compareCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = one per step size)")

	rootCmd.AddCommand(runCmd, presetsCmd, listCmd, plotCmd, exportCmd, compareCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.Warning.Render("error:"), err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "built-in scenario")
	cmd.Flags().StringVar(&method, "method", config.DefaultMethod, "integration method (midpoint, adaptive)")
	cmd.Flags().Float64Var(&stepSize, "step", config.DefaultStepSize, "step size / output cadence")
	cmd.Flags().Float64Var(&rtol, "rtol", config.DefaultRTol, "relative tolerance (adaptive)")
	cmd.Flags().Float64Var(&atol, "atol", config.DefaultATol, "absolute tolerance (adaptive)")
	cmd.Flags().Float64Var(&t0, "t0", config.DefaultT0, "start time")
	cmd.Flags().Float64Var(&tf, "tf", config.DefaultTf, "end time")
}

// resolveConfig starts from the default scenario, replaces it with the
// preset and then the config file when given, and finally applies flags the
// user set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("step") {
		cfg.StepSize = stepSize
	}
	if flags.Changed("rtol") {
		cfg.RTol = rtol
	}
	if flags.Changed("atol") {
		cfg.ATol = atol
	}
	if flags.Changed("t0") {
		cfg.T0 = t0
	}
	if flags.Changed("tf") {
		cfg.Tf = tf
	}

	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}
	slog.Debug("scenario ready", "name", cfg.Name, "bodies", len(cfg.Bodies), "method", exp.Method(), "span", exp.System().TimeSpan())

	fmt.Println(viz.Title.Render(fmt.Sprintf("running %s (%s)", cfg.Name, exp.Method())))

	out, err := exp.Run()
	if err != nil {
		return err
	}
	res := out.Result
	slog.Debug("integration finished", "samples", res.Len(), "evaluations", res.Evaluations, "elapsed", out.Elapsed)

	if final := res.Final(); !final.IsValid() {
		slog.Warn("final state is not finite; bodies may have collided", "t", res.Times[res.Len()-1])
		fmt.Println(viz.Warning.Render("warning: final state contains NaN or Inf"))
	}

	fmt.Println(viz.KeyValue("completed in", out.Elapsed.String()))
	fmt.Println(viz.KeyValue("samples", strconv.Itoa(res.Len())))
	fmt.Println(viz.KeyValue("evaluations", strconv.Itoa(res.Evaluations)))

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(exp.Config(), res)
		if err != nil {
			return err
		}
		fmt.Println(viz.KeyValue("run id", runID))
	}

	fmt.Println()
	fmt.Println(viz.HeaderStyle.Render("final positions"))
	states := make([][]float64, res.Len())
	for i, s := range res.States {
		states[i] = s
	}
	for k, b := range exp.System().Bodies() {
		p, err := b.PositionAt(b.Len() - 1)
		if err != nil {
			return err
		}
		fmt.Printf("  %-10s %12.6f %12.6f  %s\n", cfg.BodyName(k), p.X, p.Y, viz.Sparkline(viz.Distance(states, k), 30))
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMETHOD\tBODIES\tT0\tTF")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%.4f\n", name, p.Method, len(p.Bodies), p.T0, p.Tf)
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
		fmt.Println(viz.Subtle.Render("no runs found"))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tMETHOD\tSTEP\tSPAN\tBODIES\tSAMPLES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t[%g, %.4f]\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Method,
			run.StepSize,
			run.T0, run.Tf,
			len(run.Bodies),
			run.Samples,
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

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}
	if plotBody >= len(meta.Bodies) {
		return fmt.Errorf("body %d out of range: run has %d bodies", plotBody, len(meta.Bodies))
	}

	fmt.Println(viz.KeyValue("run", meta.ID))
	fmt.Println(viz.KeyValue("scenario", meta.Scenario))
	fmt.Println(viz.KeyValue("samples", strconv.Itoa(len(states))))
	fmt.Println()

	for k, b := range meta.Bodies {
		if plotBody >= 0 && k != plotBody {
			continue
		}
		for axis, name := range []string{"x", "y"} {
			graph := asciigraph.Plot(viz.Series(states, 2*k+axis),
				asciigraph.Height(10),
				asciigraph.Width(plotWidth),
				asciigraph.Caption(fmt.Sprintf("%s %s vs time", b.Name, name)),
			)
			fmt.Println(graph)
			fmt.Println()
		}
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)

	if svgFile != "" {
		if err := exportSVG(st, args[0]); err != nil {
			return err
		}
	}

	if outFile == "" {
		return st.Export(os.Stdout, args[0])
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := st.Export(f, args[0]); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportSVG(st *storage.Store, runID string) error {
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	names := make([]string, len(meta.Bodies))
	for i, b := range meta.Bodies {
		names[i] = b.Name
	}

	f, err := os.Create(svgFile)
	if err != nil {
		return err
	}
	if err := export.OrbitsToSVG(f, export.OrbitsFromStates(names, states), 800, 800); err != nil {
		f.Close()
		return err
	}
	slog.Debug("wrote orbits", "path", svgFile, "bodies", len(names))
	return f.Close()
}

func compareMethods(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(fmt.Sprintf("comparing on %s, span [%g, %g]", base.Name, base.T0, base.Tf)))
	fmt.Println(viz.Subtle.Render("deviation: max position difference from the smallest step of the same method"))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "method\tstep\tsamples\tevals\tdeviation\ttime_ms\t")

	for _, name := range methods {
		m, err := integrators.ParseMethod(name)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\t\t\t\n", name, err)
			continue
		}

		cfg := base.Clone()
		cfg.Method = m.String()
		runs, err := experiment.Sweep(context.Background(), cfg, steps, workers)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\t\t\t\n", m, err)
			continue
		}
		slog.Debug("sweep finished", "method", m, "runs", len(runs), "elapsed", experiment.Elapsed(runs))

		for _, r := range runs {
			res := r.Outcome.Result
			fmt.Fprintf(w, "%s\t%g\t%d\t%d\t%.3e\t%.2f\t\n",
				m, r.StepSize, res.Len(), res.Evaluations, r.MaxDeviation,
				float64(r.Outcome.Elapsed.Microseconds())/1000)
		}
	}

	return w.Flush()
}
