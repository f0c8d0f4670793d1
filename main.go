package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func run(args []string) error {
	var cli cliArgs
	parser, err := kong.New(
		&cli,
		kong.Name("avatarcrop"),
		kong.Description("Crop images interactively in the browser or replay recorded crop gestures."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, "~/.avatarcrop.json", "avatarcrop.json"),
	)
	if err != nil {
		return err
	}
	cliCtx, err := parser.Parse(args)
	parser.FatalIfErrorf(err)
	if err := cliCtx.Run(&cli.Globals); err != nil {
		return err
	}

	return nil
}

// Globals are flags shared by every command.
type Globals struct {
	Verbose bool   `help:"Enable verbose logging" default:"false"`
	Format  string `help:"Output format for printed data" enum:"json,yaml" default:"json"`
}

// setupLogging configures the global logger and returns a context
// carrying it.
func (g *Globals) setupLogging(ctx context.Context) context.Context {
	level := zerolog.InfoLevel
	if g.Verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	return log.Logger.WithContext(ctx)
}

type serveCmd struct {
	RootDir string `arg:"" help:"Root directory to serve files from"`
	Open    bool   `help:"Open the browser automatically when the server starts" default:"true" negatable:""`
	JSON    bool   `help:"Output operations without executing, in the selected --format"`
	Once    bool   `help:"Run the server once and exit after save" default:"true" negatable:""`
}

func (cmd *serveCmd) Run(globals *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	ctx = globals.setupLogging(ctx)

	executor := &OperationExecutor{
		BaseDir:   cmd.RootDir,
		OutputDir: filepath.Join(cmd.RootDir, "output"),
		Cropper:   NewImagingCropper(),
	}

	app := NewWebApp(Config{
		RootDir:  cmd.RootDir,
		Sessions: NewSessionStore(log.Logger.With().Str("component", "sessions").Logger()),
		OnBeforeShutdown: func() {
			log.Ctx(ctx).Info().Msg("Shutting down web application...")
		},
		OnReady: func(addr string) {
			log.Ctx(ctx).Info().Msgf("Server started at %s", addr)
			if cmd.Open {
				if err := openBrowser(addr); err != nil {
					log.Error().Err(err).Msg("Failed to open browser")
				}
			}
		},
		OnSave: func(ops Operations) {
			if cmd.JSON {
				if err := printAll(os.Stdout, globals.Format, ops); err != nil {
					log.Ctx(ctx).Error().Err(err).Msg("Failed to print operations")
				}
			} else {
				if err := executor.Exec(ctx, ops); err != nil {
					log.Ctx(ctx).Error().Err(err).Msg("Failed to execute operations")
				}
			}

			if cmd.Once {
				cancel()
			}
		},
	})

	if err := app.Run(ctx); err != nil {
		return err
	}

	return nil
}

type cliArgs struct {
	Globals

	Serve  serveCmd  `cmd:"" default:"withargs" help:"Serve a directory of images for cropping"`
	Replay replayCmd `cmd:"" help:"Replay a recorded crop gesture script"`
}

// printAll writes items as JSON lines or as a YAML document stream.
func printAll[T any](w io.Writer, format string, data []T) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		for _, item := range data {
			if err := enc.Encode(item); err != nil {
				return fmt.Errorf("failed to encode item to YAML: %w", err)
			}
		}
		return nil
	default:
		enc := json.NewEncoder(w)
		for _, item := range data {
			if err := enc.Encode(item); err != nil {
				return fmt.Errorf("failed to encode item to JSON: %w", err)
			}
		}
		return nil
	}
}
