package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarkfield/lightcone/internal/engine"
)

var appendFlags struct {
	kind       string
	observable string
	data       string
	file       string
	minKey     float64
}

// appendCmd is the local append driver: it stores the primitive fact and
// runs the core append-reaction path against the same database the server
// uses.
var appendCmd = &cobra.Command{
	Use:   "append",
	Short: "Append a new entry (driver-side operation)",
	RunE:  runAppend,
}

func init() {
	appendCmd.Flags().StringVar(&appendFlags.kind, "kind", "string", "payload kind: string, brane or field")
	appendCmd.Flags().StringVar(&appendFlags.observable, "observable", "", "derived-lookup name for the entry")
	appendCmd.Flags().StringVar(&appendFlags.data, "data", "", "inline payload bytes")
	appendCmd.Flags().StringVar(&appendFlags.file, "file", "", "read payload bytes from file")
	appendCmd.Flags().Float64Var(&appendFlags.minKey, "min-key", 0, "minimum key to assign")
}

func runAppend(cmd *cobra.Command, args []string) error {
	var data []byte
	switch {
	case appendFlags.file != "":
		var err error
		data, err = os.ReadFile(appendFlags.file)
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
	case appendFlags.data != "":
		data = []byte(appendFlags.data)
	default:
		return fmt.Errorf("one of --data or --file is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	core, db, err := buildCore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	prim := engine.Primitive{
		Kind:       engine.PayloadKind(appendFlags.kind),
		Observable: appendFlags.observable,
		Data:       data,
	}
	if !engine.ValidKind(prim.Kind) {
		return fmt.Errorf("kind %q: %w", appendFlags.kind, engine.ErrUnknownKind)
	}

	if err := db.PutPrimitive(cmd.Context(), &prim); err != nil {
		return err
	}

	key, err := core.Append(cmd.Context(), prim, engine.KeyFromFloat(appendFlags.minKey))
	if err != nil {
		return err
	}

	fmt.Printf("appended %s at key %s (%d bytes)\n", prim.ID, key, len(data))
	return nil
}
