package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	runInterval time.Duration
	runMaxTicks int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run the tick loop, streaming events as newline-delimited JSON",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", time.Second, "wall-clock interval between ticks")
	runCmd.Flags().IntVar(&runMaxTicks, "max-ticks", 0, "stop after N ticks (0 = run until interrupted)")
}

func runRun(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	defer engine.Close()

	events, unsub := engine.Subscribe(256)
	defer unsub()

	enc := json.NewEncoder(os.Stdout)
	go func() {
		for ev := range events {
			_ = enc.Encode(ev)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(runInterval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-sigCh:
			return nil
		case t := <-ticker.C:
			if _, err := engine.Tick(t); err != nil {
				return fmt.Errorf("tick: %w", err)
			}
			ticks++
			if runMaxTicks > 0 && ticks >= runMaxTicks {
				return nil
			}
		}
	}
}
