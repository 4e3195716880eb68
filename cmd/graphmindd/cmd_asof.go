package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphmind/graphmind/pkg/graphmind"
)

var asOfAxis string

var asOfCmd = &cobra.Command{
	Use:   "as-of [logical] [rfc3339-instant]",
	Short: "resolve the version of a node live at a given instant on an axis",
	Long: `Axis is one of "reality" (valid_from/valid_to) or "knowledge"
(known_from/known_to, the default).`,
	Args: cobra.ExactArgs(2),
	RunE: runAsOf,
}

func init() {
	asOfCmd.Flags().StringVar(&asOfAxis, "axis", "knowledge", `bitemporal axis: "reality" or "knowledge"`)
}

func runAsOf(cmd *cobra.Command, args []string) error {
	instant, err := time.Parse(time.RFC3339, args[1])
	if err != nil {
		return fmt.Errorf("parsing instant: %w", err)
	}
	axis := graphmind.AxisKnowledge
	if asOfAxis == "reality" {
		axis = graphmind.AxisReality
	}

	engine, err := openEngine()
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	defer engine.Close()

	version, err := engine.AsOfNode(args[0], axis, instant)
	if err != nil {
		return fmt.Errorf("as-of: %w", err)
	}
	return json.NewEncoder(os.Stdout).Encode(version)
}
