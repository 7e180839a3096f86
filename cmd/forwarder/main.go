package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	cliplugins "asterix/internal/cli_plugins"
	"asterix/internal/config"
	"asterix/internal/util/logger/handlers/slogpretty"
	"asterix/pkg/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// a second signal gets the default behaviour and ends the process
	context.AfterFunc(ctx, stop)

	app := cliplugins.NewAppContext(setupLogger)

	CLI := cli.NewCLI("asterix-forwarder", "Forward OGN aircraft beacons as ASTERIX cat. 62 over UDP")
	CLI.RegisterPlugin(cliplugins.NewRunCommand(app, os.Stdin))
	CLI.RegisterPlugin(cliplugins.NewEncodeCommand(os.Stdin))
	CLI.RegisterPlugin(cliplugins.NewInterfacesCommand(nil))
	CLI.RegisterPlugin(cliplugins.NewListenCommand(app))
	CLI.RegisterPlugin(cliplugins.NewVersionCommand())

	if err := CLI.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// setupLogger writes to stderr so command output on stdout stays clean.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		if term.IsTerminal(int(os.Stderr.Fd())) {
			log = setupPrettySlog(os.Stderr)
		} else {
			log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
	case config.EnvDev:
		log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlog(writer io.Writer) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(writer)

	return slog.New(handler)
}
