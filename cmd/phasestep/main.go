package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"ostrakon/internal/app/bootstrap"
)

// Phase step entrypoint, run once per scheduled control pass.
// Data flow:
// 1) Load config and connect storage.
// 2) Read the election phase once.
// 3) Run the single per-question operation that phase calls for.
func main() {
	if len(os.Args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s\n", filepath.Base(os.Args[0]))
		os.Exit(1)
	}

	log.Println("ostrakon phase step starting")
	app, err := bootstrap.BuildPhaseStep()
	if err != nil {
		log.Fatalf("phase step failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("phase step shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("phase step failed: %v", err)
	}
}
