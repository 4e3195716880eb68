package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var snapshotSampleSize int

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "print the active/shadow frontier and a sample of node energies",
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().IntVar(&snapshotSampleSize, "sample", 100, "max number of (energy,threshold) samples to return (0 = unlimited)")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	defer engine.Close()

	return json.NewEncoder(os.Stdout).Encode(engine.Snapshot(snapshotSampleSize))
}
