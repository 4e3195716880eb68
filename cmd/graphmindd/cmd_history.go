package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [logical]",
	Short: "print every version of a logical node, oldest-to-newest",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	defer engine.Close()

	versions, err := engine.History(args[0])
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	return json.NewEncoder(os.Stdout).Encode(versions)
}
