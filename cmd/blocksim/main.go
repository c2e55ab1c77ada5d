package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/blocksim/internal/analysis"
	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/models"
	"github.com/san-kum/blocksim/internal/sim"
	"github.com/san-kum/blocksim/internal/solver"
	"github.com/san-kum/blocksim/internal/storage"
	"github.com/san-kum/blocksim/internal/stream"
	"github.com/san-kum/blocksim/internal/viz"
)

var (
	dataDir    string
	duration   float64
	rtol       float64
	atol       float64
	xtol       float64
	maxStep    float64
	configFile string
	frameRate  int
	speed      float64
	addr       string
	outFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "blocksim",
		Short: "hybrid block diagram simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".blocksim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	runCmd.Flags().Float64Var(&rtol, "rtol", config.DefaultRTol, "relative tolerance")
	runCmd.Flags().Float64Var(&atol, "atol", config.DefaultATol, "absolute tolerance")
	runCmd.Flags().Float64Var(&xtol, "xtol", config.DefaultXTol, "event time tolerance")
	runCmd.Flags().Float64Var(&maxStep, "max-step", 0, "maximum step size (0 = unbounded)")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list available models",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range models.NewRegistry().List() {
				fmt.Println(name)
			}
		},
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run simulation with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&rtol, "rtol", config.DefaultRTol, "relative tolerance")
	liveCmd.Flags().Float64Var(&atol, "atol", config.DefaultATol, "absolute tolerance")
	liveCmd.Flags().Float64Var(&xtol, "xtol", config.DefaultXTol, "event time tolerance")
	liveCmd.Flags().IntVar(&frameRate, "fps", config.DefaultFrameRate, "frame rate")
	liveCmd.Flags().Float64Var(&speed, "speed", 1.0, "simulated seconds per wall second")

	serveCmd := &cobra.Command{
		Use:   "serve [model]",
		Short: "stream a simulation over websocket",
		Args:  cobra.ExactArgs(1),
		RunE:  serveRun,
	}
	serveCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	serveCmd.Flags().Float64Var(&rtol, "rtol", config.DefaultRTol, "relative tolerance")
	serveCmd.Flags().Float64Var(&atol, "atol", config.DefaultATol, "absolute tolerance")
	serveCmd.Flags().Float64Var(&xtol, "xtol", config.DefaultXTol, "event time tolerance")
	serveCmd.Flags().IntVar(&frameRate, "fps", config.DefaultFrameRate, "frame rate")
	serveCmd.Flags().Float64Var(&speed, "speed", 1.0, "simulated seconds per wall second")
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	rootCmd.AddCommand(runCmd, listCmd, modelsCmd, plotCmd, exportJSONCmd, analyzeCmd, liveCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildSim constructs the named demo and a simulator over it using the
// current tolerance flags.
func buildSim(name string) (*models.Demo, *sim.Simulator, error) {
	demo, err := models.NewRegistry().Get(name)
	if err != nil {
		return nil, nil, err
	}
	s, err := sim.New(demo.System, sim.Options{
		Integrator: solver.NewRK45(solver.RK45Options{
			RTol:    rtol,
			ATol:    atol,
			MaxStep: maxStep,
		}),
		RootFinder: solver.Brent{XTol: xtol, MaxIter: solver.DefaultMaxIter},
	})
	if err != nil {
		return nil, nil, err
	}
	return demo, s, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	model := args[0]

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if !cmd.Flags().Changed("time") {
			duration = cfg.Duration
		}
		if !cmd.Flags().Changed("rtol") {
			rtol = cfg.RTol
		}
		if !cmd.Flags().Changed("atol") {
			atol = cfg.ATol
		}
		if !cmd.Flags().Changed("xtol") {
			xtol = cfg.XTol
		}
		if !cmd.Flags().Changed("max-step") {
			maxStep = cfg.MaxStep
		}
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	demo, s, err := buildSim(model)
	if err != nil {
		return err
	}

	fmt.Printf("running %s simulation...\n", model)
	start := time.Now()

	runErr := s.RunUntil(duration)
	elapsed := time.Since(start)

	// A failed run still has a usable partial trajectory; save it so the
	// failure can be inspected with plot and export-json.
	meta := storage.RunMetadata{
		Model:     model,
		Duration:  s.Time(),
		RTol:      rtol,
		ATol:      atol,
		XTol:      xtol,
		NumStates: demo.System.NumStates(),
		Status:    s.Status().String(),
	}
	runID, err := st.Save(meta, s.Result())
	if err != nil {
		return err
	}

	if runErr != nil {
		fmt.Printf("simulation failed at t=%.6f: %v\n", s.Time(), runErr)
	} else {
		fmt.Printf("completed in %v\n", elapsed)
	}
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", meta.Samples)
	fmt.Printf("events: %d\n", meta.Events)

	if runErr != nil {
		os.Exit(1)
	}
	return nil
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
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tDURATION\tSAMPLES\tEVENTS\tSTATUS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3fs\t%d\t%d\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Samples,
			run.Events,
			run.Status,
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

	run, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if len(run.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(run.Times))

	numVars := len(run.States[0])
	maxPlots := 6
	if numVars > maxPlots {
		numVars = maxPlots
	}

	for varIdx := 0; varIdx < numVars; varIdx++ {
		data := make([]float64, len(run.States))
		for i := range run.States {
			data[i] = run.States[i][varIdx]
		}
		fmt.Println(viz.Plot(data, fmt.Sprintf("x%d vs time", varIdx)))
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	run, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(run.Times) < 2 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("model: %s\n\n", meta.Model)

	values := make([]float64, len(run.States))
	for i := range run.States {
		values[i] = run.States[i][0]
	}

	ps := analysis.PowerSpectrum(run.Times, values)
	if len(ps) == 0 {
		return fmt.Errorf("series too short to analyze")
	}
	fmt.Println(viz.Plot(ps[:len(ps)/4], "power spectrum (x0)"))
	fmt.Println()

	freq := analysis.DominantFrequency(run.Times, values)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(args[0], outFile)
}

func runLive(cmd *cobra.Command, args []string) error {
	model := args[0]

	build := func() (*models.Demo, *sim.Simulator, error) {
		return buildSim(model)
	}
	m, err := viz.NewModel(build, float64(frameRate), speed)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func serveRun(cmd *cobra.Command, args []string) error {
	demo, s, err := buildSim(args[0])
	if err != nil {
		return err
	}

	srv := stream.NewServer(addr)
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Shutdown(context.Background())
	s.AddObserver(srv)

	fmt.Printf("serving %s on ws://%s/ws\n", demo.Name, srv.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	ticker := time.NewTicker(time.Second / time.Duration(frameRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nstopped")
			return nil
		case <-ticker.C:
			target := speed * time.Since(start).Seconds()
			if target > duration {
				target = duration
			}
			if err := s.RunUntil(target); err != nil {
				return err
			}
			if target >= duration {
				fmt.Printf("finished: %d samples, %d clients\n", s.Result().Len(), srv.ClientCount())
				return nil
			}
		}
	}
}
