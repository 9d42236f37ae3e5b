package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarkfield/lightcone/internal/config"
	"github.com/quarkfield/lightcone/internal/engine"
)

var queryFlags struct {
	position []float64
	target   []float64
	time     float64
	basis    string
	start    int
	goal     int
}

var queryCmd = &cobra.Command{
	Use:   "query <observable>",
	Short: "Run a causally gated query",
	Long: "Query the dataset as an observer. With --basis address the observable is a\n" +
		"key; with --basis observable it is resolved through the semantic index.",
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Float64SliceVar(&queryFlags.position, "position", []float64{0, 0, 0}, "observer position x,y,z")
	queryCmd.Flags().Float64SliceVar(&queryFlags.target, "target", []float64{0, 0, 0}, "target position x,y,z")
	queryCmd.Flags().Float64Var(&queryFlags.time, "time", 0, "observer time cursor")
	queryCmd.Flags().StringVar(&queryFlags.basis, "basis", "address", "lookup basis: address or observable")
	queryCmd.Flags().IntVar(&queryFlags.start, "route-start", -1, "routing start node index")
	queryCmd.Flags().IntVar(&queryFlags.goal, "route-goal", -1, "routing goal node index")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	core, db, err := buildCore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	req := engine.QueryRequest{
		Position:   toPosition(queryFlags.position),
		Target:     toPosition(queryFlags.target),
		Time:       queryFlags.time,
		Observable: args[0],
		Basis:      engine.Basis(queryFlags.basis),
	}
	if queryFlags.start >= 0 {
		req.RouteStart = &queryFlags.start
		req.RouteGoal = &queryFlags.goal
	}

	resp, err := core.Query(cmd.Context(), req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func toPosition(v []float64) engine.Position {
	var p engine.Position
	copy(p[:], v)
	return p
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print core state counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		core, db, err := buildCore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(core.Stats())
	},
}

var routeCmd = &cobra.Command{
	Use:   "route <start> <goal>",
	Short: "Compute a weighted route between spatial nodes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Graph.Path == "" {
			return fmt.Errorf("no graph configured (set graph.path)")
		}

		graph, err := config.LoadGraph(cfg.Graph.Path)
		if err != nil {
			return err
		}

		var start, goal int
		if _, err := fmt.Sscanf(args[0], "%d", &start); err != nil {
			return fmt.Errorf("parse start %q: %w", args[0], err)
		}
		if _, err := fmt.Sscanf(args[1], "%d", &goal); err != nil {
			return fmt.Errorf("parse goal %q: %w", args[1], err)
		}

		route, err := graph.Route(start, goal)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(route)
	},
}
