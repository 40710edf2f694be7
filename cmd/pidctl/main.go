package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/pidctl/internal/analysis"
	"github.com/san-kum/pidctl/internal/config"
	"github.com/san-kum/pidctl/internal/experiment"
	"github.com/san-kum/pidctl/internal/pid"
	"github.com/san-kum/pidctl/internal/scenario"
	"github.com/san-kum/pidctl/internal/sim"
	"github.com/san-kum/pidctl/internal/storage"
	"github.com/san-kum/pidctl/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	integrator string
	controller string
	kp         float64
	ki         float64
	kd         float64
	dt         float64
	minOut     float64
	maxOut     float64
	setpoint   float64
	duration   float64
	seed       int64
	// calc
	peek       bool
	resetEvery int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pidctl",
		Short:         "discrete PID controller and closed-loop tuning bench",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pidctl", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [plant]",
		Short: "simulate a closed loop and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot measured value and controller output",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step response and frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [plant] kp,ki,kd [kp,ki,kd ...]",
		Short: "compare gain sets on the same plant",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareGains,
	}
	addRunFlags(compareCmd)

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario and store the combined run",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	liveCmd := &cobra.Command{
		Use:   "live [plant]",
		Short: "tune a loop interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [plant]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	calcCmd := &cobra.Command{
		Use:   "calc",
		Short: "read \"setpoint measurement\" lines from stdin, print one output per line",
		Args:  cobra.NoArgs,
		RunE:  runCalc,
	}
	addRunFlags(calcCmd)
	calcCmd.Flags().BoolVar(&peek, "peek", false, "compute outputs without advancing controller state")
	calcCmd.Flags().IntVar(&resetEvery, "reset-every", 0, "reset the controller every N samples (0 = never)")

	validateCmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "check a run config file",
		Args:  cobra.ExactArgs(1),
		RunE:  validateConfig,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, compareCmd, scenarioCmd, liveCmd, presetsCmd, calcCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.StatusError.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4)")
	cmd.Flags().StringVar(&controller, "controller", "pid", "controller (pid, none)")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "integral gain")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "derivative gain")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "controller timestep")
	cmd.Flags().Float64Var(&minOut, "min", config.DefaultMinOut, "minimum controller output")
	cmd.Flags().Float64Var(&maxOut, "max", config.DefaultMaxOut, "maximum controller output")
	cmd.Flags().Float64Var(&setpoint, "setpoint", config.DefaultSetpoint, "setpoint")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Plant = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Plant, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Plant))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) > 0 {
			cfg.Plant = args[0]
		}
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Controller = controller
	}
	if flags.Changed("kp") {
		cfg.PID.KP = kp
	}
	if flags.Changed("ki") {
		cfg.PID.KI = ki
	}
	if flags.Changed("kd") {
		cfg.PID.KD = kd
	}
	if flags.Changed("dt") {
		cfg.PID.Timestep = dt
	}
	if flags.Changed("min") {
		cfg.PID.MinOut = minOut
	}
	if flags.Changed("max") {
		cfg.PID.MaxOut = maxOut
	}
	if flags.Changed("setpoint") {
		cfg.Setpoint = setpoint
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.NewRegistry())
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (kp=%g ki=%g kd=%g dt=%g)...\n", cfg.Plant, cfg.PID.KP, cfg.PID.KI, cfg.PID.KD, cfg.PID.Timestep)
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	for _, e := range result.Errors {
		fmt.Println(viz.StatusError.Render(e.Error()))
	}

	runID, err := st.Save(storage.MetadataFor(cfg), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n\n", result.StepsTaken)
	fmt.Println(viz.PlotTracking(result, exp.Plant().Measured(), "measured vs setpoint"))
	fmt.Println()
	return printMetrics(result.Metrics)
}

func printMetrics(m map[string]float64) error {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println(viz.HeaderStyle.Render("metrics"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.6f\n", name, m[name])
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLANT\tTIME\tDURATION\tDT\tKP\tKI\tKD\tCTRL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%g\t%g\t%g\t%s\n",
			run.ID,
			run.Plant,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.PID.Timestep,
			run.PID.KP,
			run.PID.KI,
			run.PID.KD,
			run.Controller,
		)
	}
	return w.Flush()
}

// loadRun returns a stored run and the index of its measured state.
func loadRun(runID string) (*storage.RunMetadata, *sim.Result, int, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, 0, err
	}
	result, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(result.States) == 0 {
		return nil, nil, 0, fmt.Errorf("run %s has no data", runID)
	}

	index := 0
	if p, err := experiment.NewRegistry().GetPlant(meta.Plant); err == nil {
		index = p.Measured()
	}
	return meta, result, index, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, index, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("plant: %s\n", meta.Plant)
	fmt.Printf("samples: %d\n\n", len(result.States))

	fmt.Println(viz.PlotTracking(result, index, fmt.Sprintf("x%d vs setpoint", index)))
	fmt.Println()
	if len(result.Controls) > 0 {
		fmt.Println(viz.PlotControl(result, "controller output"))
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, result, index, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("plant: %s  setpoint: %g\n\n", meta.Plant, meta.Setpoint)

	measured := result.Series(index)
	info := analysis.Step(result.Times, measured, meta.Setpoint)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "peak\t%.4f\n", info.Peak)
	fmt.Fprintf(w, "overshoot\t%.2f%%\n", info.Overshoot)
	fmt.Fprintf(w, "rise time\t%s\n", formatDuration(info.RiseTime))
	fmt.Fprintf(w, "settling time\t%s\n", formatDuration(info.SettlingTime))
	fmt.Fprintf(w, "steady-state error\t%.4g\n", info.SteadyStateError)

	freq := analysis.DominantFrequency(measured, meta.PID.Timestep)
	fmt.Fprintf(w, "dominant frequency\t%.3f hz\n", freq)
	if freq > 0 {
		fmt.Fprintf(w, "period\t%.3f s\n", 1.0/freq)
	}
	return w.Flush()
}

func formatDuration(s float64) string {
	if math.IsNaN(s) {
		return "never"
	}
	return fmt.Sprintf("%.3f s", s)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, _, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, result)
}

// parseGains reads "kp,ki,kd" into a copy of base.
func parseGains(s string, base pid.Config) (pid.Config, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return pid.Config{}, fmt.Errorf("gains %q: want kp,ki,kd", s)
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return pid.Config{}, fmt.Errorf("gains %q: %w", s, err)
		}
		vals[i] = v
	}
	cfg := base
	cfg.KP, cfg.KI, cfg.KD = vals[0], vals[1], vals[2]
	return cfg, nil
}

func compareGains(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}

	variants := make([]pid.Config, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := parseGains(a, cfg.PID)
		if err != nil {
			return err
		}
		variants = append(variants, v)
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := experiment.Compare(ctx, experiment.NewRegistry(), cfg, variants)
	if err != nil {
		return err
	}

	index := 0
	if p, err := experiment.NewRegistry().GetPlant(cfg.Plant); err == nil {
		index = p.Measured()
	}

	fmt.Printf("comparing gains on %s (dt=%g, duration=%gs, setpoint=%g)\n\n", cfg.Plant, cfg.PID.Timestep, cfg.Duration, cfg.Setpoint)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KP\tKI\tKD\tIAE\tISE\tOVERSHOOT\tSETTLING\tSATURATION")
	for i, r := range results {
		v := variants[i]
		info := analysis.Step(r.Times, r.Series(index), cfg.Setpoint)
		fmt.Fprintf(w, "%g\t%g\t%g\t%.4f\t%.4f\t%.1f%%\t%s\t%.2f\n",
			v.KP, v.KI, v.KD,
			r.Metrics["iae"], r.Metrics["ise"],
			info.Overshoot, formatDuration(info.SettlingTime),
			r.Metrics["saturation"],
		)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Println(viz.Subtle.Render(sc.Description))
	}

	report, err := scenario.Run(ctx, sc, experiment.NewRegistry())
	if report == nil {
		return err
	}
	for i, p := range report.Phases {
		fmt.Printf("\n%s\n", viz.HeaderStyle.Render(fmt.Sprintf("phase %d: %s", i+1, p.Name)))
		fmt.Printf("  t=%.2fs..%.2fs  final=%v\n", p.Result.Times[0], p.Result.Times[len(p.Result.Times)-1], p.Result.Final())
		if err := printMetrics(p.Result.Metrics); err != nil {
			return err
		}
	}
	if err != nil {
		return err
	}

	combined := report.Combined()
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta := storage.MetadataFor(&sc.Base)
	meta.Name = sc.Name
	meta.PID = report.PID
	meta.Duration = combined.Times[len(combined.Times)-1]
	runID, err := st.Save(meta, combined)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(cfg, registry)
	if err := exp.Setup(); err != nil {
		return err
	}
	loop := exp.Loop()
	if loop == nil {
		return fmt.Errorf("live tuning needs the pid controller, got %s", cfg.Controller)
	}
	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	m := viz.NewLive(cfg.Plant, loop, exp.Plant(), integ, exp.InitialState())
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	plants := experiment.NewRegistry().ListPlants()
	if len(args) > 0 {
		plants = args
	}

	for _, plant := range plants {
		presets := config.ListPresets(plant)
		if len(presets) == 0 {
			fmt.Printf("no presets for plant: %s\n", plant)
			continue
		}
		fmt.Printf("presets for %s:\n", plant)
		for _, name := range presets {
			p := config.GetPreset(plant, name)
			fmt.Printf("  %-14s %s kp=%g ki=%g kd=%g dt=%g\n", name, p.Controller, p.PID.KP, p.PID.KI, p.PID.KD, p.PID.Timestep)
		}
	}
	return nil
}

func runCalc(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	c, err := pid.New(cfg.PID)
	if err != nil {
		return err
	}
	return calcStream(os.Stdin, os.Stdout, c, peek, resetEvery)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Println(viz.StatusRunning.Render("ok") + fmt.Sprintf(" %s: %s/%s/%s, kp=%g ki=%g kd=%g dt=%g [%g, %g]",
		args[0], cfg.Plant, cfg.Integrator, cfg.Controller,
		cfg.PID.KP, cfg.PID.KI, cfg.PID.KD, cfg.PID.Timestep, cfg.PID.MinOut, cfg.PID.MaxOut))
	return nil
}
