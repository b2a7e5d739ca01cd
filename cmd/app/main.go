package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/nuage/internal"
	"github.com/starford/nuage/internal/models"
	"github.com/starford/nuage/internal/screen"
	pkgconfig "github.com/starford/nuage/pkg/config"
)

var version = "dev"

const defaultConfigPath = "config/config.yaml"

// loadOptions reads the config named by --config. The default path may be
// absent, in which case built-in defaults are used.
func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if configPath == defaultConfigPath {
		if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunMigrate(ctx, opts...)
}

func list(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	filter := screen.Filter{
		Type:  models.Type(cmd.String("type")),
		Query: cmd.String("query"),
	}
	return internal.RunList(ctx, filter, opts...)
}

func clearNotes(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunClear(ctx, cmd.Bool("yes"), opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "nuage",
		Usage:   "Local note store for text, drawing and voice notes",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigPath,
				Value:       defaultConfigPath,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, event stream and file watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve notes to MCP clients over stdio",
				Action: mcp,
			},
			{
				Name:   "migrate",
				Usage:  "Move notes saved under the legacy key to the current one",
				Action: migrate,
			},
			{
				Name:   "clear",
				Usage:  "Delete every note and its recording",
				Action: clearNotes,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Confirm deleting every note",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "Print stored notes, newest first",
				Action: list,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Only notes of this type (text, drawing, audio)",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Only notes whose title, content or tags contain this text",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
