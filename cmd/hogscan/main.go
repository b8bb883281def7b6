package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ironsheep/hogscan/internal/config"
	"github.com/ironsheep/hogscan/internal/logging"
	"github.com/ironsheep/hogscan/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `hogscan - HOG person detector and MCP server

Usage:
  hogscan                       Run the MCP server on stdin/stdout
  hogscan serve                 Same as above
  hogscan detect [flags] IMAGE...
  hogscan evaluate [flags] -truth FILE IMAGE...
  hogscan preprocess [flags] -o OUT IMAGE
  hogscan describe [flags] IMAGE...
  hogscan tiles [flags] -o DIR IMAGE...
  hogscan crops [flags] -truth FILE -o DIR IMAGE...

Options:
  --version, -v    Print version information
  --help, -h       Print this help message

Run "hogscan COMMAND -h" for the flags of a command.

Environment variables:
  HOGSCAN_CONFIG=path.toml      Configuration file
  HOGSCAN_LOG_LEVEL=debug       Log level (debug, info, warn, error)
  HOGSCAN_MODEL=model.json      Classifier used for detection
  HOGSCAN_STEP, HOGSCAN_THRESHOLD, HOGSCAN_GROWTH, HOGSCAN_TOLERANCE,
  HOGSCAN_CELL_SIZE, HOGSCAN_BINS, HOGSCAN_CELLS_PER_BLOCK,
  HOGSCAN_BLACK_PERCENT, HOGSCAN_WHITE_PERCENT, HOGSCAN_FILTERS,
  HOGSCAN_MAX_ITERATIONS        Override the configuration file

The server communicates via MCP protocol over stdin/stdout; logs go to
stderr.
`

// env carries the configuration and logger into a command.
type env struct {
	cfg *config.Config
	log zerolog.Logger
}

type command func(ctx context.Context, e *env, args []string) error

var commands = map[string]command{
	"serve":      runServe,
	"detect":     runDetect,
	"evaluate":   runEvaluate,
	"preprocess": runPreprocess,
	"describe":   runDescribe,
	"tiles":      runTiles,
	"crops":      runCrops,
}

func main() {
	name := "serve"
	var args []string
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("hogscan %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Print(usage)
			return
		}
		name, args = os.Args[1], os.Args[2:]
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "hogscan: unknown command %q\n\n%s", name, usage)
		os.Exit(2)
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "hogscan: %v\n", err)
		os.Exit(1)
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	e := &env{cfg: cfg, log: logging.NewStderr(level)}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, e, args); err != nil {
		stop()
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		e.log.Fatal().Err(err).Str("command", name).Msg("command failed")
	}
}

func runServe(ctx context.Context, e *env, args []string) error {
	fs := e.flagSet("serve", "")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	e.log.Debug().
		Str("version", Version).
		Str("built", BuildTime).
		Str("commit", GitCommit).
		Msg("hogscan MCP server starting")

	srv := server.New(
		server.WithConfig(e.cfg),
		server.WithLogger(logging.Component(e.log, "server")),
		server.WithVersion(Version),
	)
	return srv.Run(ctx)
}
