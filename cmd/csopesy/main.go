// Command csopesy is the emulator's entrypoint: it wires configuration
// loading, logging, and the interactive shell together, matching
// original_source/os-emulator/main.cpp's role (everything the core
// treats as an external collaborator, per spec.md §1).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/stinson122/csopesy-os-emulator/internal/config"
	"github.com/stinson122/csopesy-os-emulator/internal/logging"
	"github.com/stinson122/csopesy-os-emulator/internal/shell"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the emulator configuration file")
	dev := flag.Bool("dev", false, "use human-readable development logging")
	flag.Parse()

	log, err := logging.New(logging.Config{Development: *dev})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}
	defer log.Sync()

	sh := shell.New(os.Stdin, os.Stdout, log, func() (config.Config, error) {
		return config.Load(*configPath)
	})

	os.Exit(sh.Run())
}
