package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graphmind/graphmind/pkg/graphmind"
)

var (
	injectBudget  float64
	injectTargets []string
)

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "inject stimulus into one or more nodes",
	Long: `Injects energy into a weighted batch of targets.

Example:
  graphmindd inject --budget 1.0 --target node-a:0.6 --target node-b:0.4`,
	RunE: runInject,
}

func init() {
	injectCmd.Flags().Float64Var(&injectBudget, "budget", 1.0, "total energy budget for this injection")
	injectCmd.Flags().StringArrayVar(&injectTargets, "target", nil, "logical:weight pair, repeatable")
	injectCmd.MarkFlagRequired("target")
}

func runInject(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	defer engine.Close()

	targets, err := parseTargets(injectTargets)
	if err != nil {
		return err
	}

	report, err := engine.Inject(targets, injectBudget, nil)
	if err != nil {
		return fmt.Errorf("inject: %w", err)
	}
	return json.NewEncoder(os.Stdout).Encode(report)
}

func parseTargets(raw []string) ([]graphmind.Target, error) {
	out := make([]graphmind.Target, 0, len(raw))
	for _, r := range raw {
		parts := strings.SplitN(r, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid target %q, expected logical:weight", r)
		}
		weight, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight in target %q: %w", r, err)
		}
		out = append(out, graphmind.Target{Logical: parts[0], Weight: weight})
	}
	return out, nil
}
