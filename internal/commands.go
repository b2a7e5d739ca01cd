package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/starford/nuage/internal/api"
	"github.com/starford/nuage/internal/kv"
	"github.com/starford/nuage/internal/mcpserver"
	"github.com/starford/nuage/internal/models"
	"github.com/starford/nuage/internal/screen"
)

// open prepares the services for a one-shot command. Logs go to stderr so
// stdout stays clean for results.
func (a *application) open(ctx context.Context) (*services, error) {
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger := newLogger(a.config, a.logOut, os.Stderr)
	slog.SetDefault(logger)

	svc, err := openServices(ctx, a.config, logger)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return svc, nil
}

// RunMCP serves the MCP protocol on stdin/stdout until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	svc, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()
	svc.prime(ctx)

	svc.logger.Info("MCP server starting", slog.String("storage_driver", app.config.Storage.Driver))
	return mcpserver.New(svc.store, svc.factory, app.version).ServeStdio()
}

// RunMigrate moves a legacy collection to the current key. It refuses to
// touch a store whose current key already holds data.
func RunMigrate(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	svc, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	existing, err := svc.provider.Get(ctx, models.NotesKey)
	switch {
	case err == nil && len(existing) > 0:
		_, err = fmt.Fprintln(app.out, "notes already migrated")
		return err
	case err != nil && !errors.Is(err, kv.ErrKeyNotFound):
		return fmt.Errorf("read current notes: %w", err)
	}

	notes, ok, err := svc.store.MigrateLegacyIfPresent(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if !ok {
		_, err = fmt.Fprintln(app.out, "no legacy notes found")
		return err
	}
	_, err = fmt.Fprintf(app.out, "migrated %d notes\n", len(notes))
	return err
}

// RunList prints the stored notes, newest first, optionally filtered.
func RunList(ctx context.Context, filter screen.Filter, opts ...Option) error {
	app := newApplication(opts)
	if filter.Type != "" && !filter.Type.Valid() {
		return fmt.Errorf("unknown note type %q", filter.Type)
	}
	svc, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	notes, err := svc.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load notes: %w", err)
	}

	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tDATE\tTITLE")
	for _, n := range filter.Apply(notes) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.ID, n.Type, n.Date.Display(time.Local), n.Title)
	}
	return tw.Flush()
}

// ErrClearNotConfirmed is returned by RunClear when confirm is false.
var ErrClearNotConfirmed = errors.New("refusing to delete every note without confirmation")

// RunClear deletes every note and the uploaded recordings they point to.
func RunClear(ctx context.Context, confirm bool, opts ...Option) error {
	if !confirm {
		return ErrClearNotConfirmed
	}
	app := newApplication(opts)
	svc, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	removed, err := svc.store.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear notes: %w", err)
	}
	assets := api.NewAssetHandler(app.config.Assets.Path)
	for _, n := range removed {
		assets.RemoveRecording(n)
	}
	_, err = fmt.Fprintf(app.out, "cleared %d notes\n", len(removed))
	return err
}
