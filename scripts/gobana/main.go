package main

import (
	"fmt"
	"os"

	"FlowTagger/internal/engine/impl/report"
	"FlowTagger/internal/ui"

	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts/gobana/main.go <snapshot_dir>/report.dat")
		os.Exit(1)
	}

	snapshot, err := report.ReadSnapshot(os.Args[1])
	if err != nil {
		logrus.Fatalf("Failed to read snapshot: %v", err)
	}

	ui.PrintReport(os.Stdout, snapshot)
	for _, skipped := range snapshot.Skipped {
		fmt.Printf("line %d: %s (%s)\n", skipped.Line, skipped.Reason, skipped.Detail)
	}
}
