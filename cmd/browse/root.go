package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"productpager/internal/catalog"
	"productpager/internal/client"
	"productpager/internal/logger"
	"productpager/internal/presentation"
	"productpager/internal/tui"
)

type browseOptions struct {
	baseURL      string
	shop         string
	view         string
	galleryMode  string
	fetchTimeout time.Duration
	logLevel     string
	clientID     string
	clientSecret string
}

func (o *browseOptions) client(log *logger.Logger) (*client.Client, error) {
	if o.shop == "" {
		return nil, errors.New("--shop is required")
	}
	view := catalog.View(o.view)
	if view != catalog.ViewList && view != catalog.ViewGallery {
		return nil, fmt.Errorf("unknown view %q", o.view)
	}
	opts := []client.Option{client.WithView(view), client.WithLogger(log)}
	if o.clientSecret != "" {
		opts = append(opts, client.WithAppCredentials(o.clientID, o.clientSecret))
	}
	return client.New(o.baseURL, o.shop, opts...), nil
}

func newRootCmd() *cobra.Command {
	// Environment defaults, same as the server.
	_ = godotenv.Load()

	opts := &browseOptions{}

	cmd := &cobra.Command{
		Use:           "browse",
		Short:         "Browse a shop's products page by page",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "base-url", envOr("APP_URL", "http://localhost:8080"), "product pager API base URL")
	flags.StringVar(&opts.shop, "shop", os.Getenv("SHOP"), "shop domain, e.g. example.myshopify.com")
	flags.StringVar(&opts.view, "view", string(catalog.ViewList), "page route to browse: list or gallery")
	flags.StringVar(&opts.galleryMode, "gallery-mode", envOr("GALLERY_MODE", string(presentation.GalleryPerProduct)), "gallery cards per product or per image")
	flags.DurationVar(&opts.fetchTimeout, "fetch-timeout", catalog.DefaultFetchTimeout, "upper bound for a single next-page fetch")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level for the dump command")
	flags.StringVar(&opts.clientID, "client-id", os.Getenv("SHOPIFY_CLIENT_ID"), "app client id used to sign session tokens")
	flags.StringVar(&opts.clientSecret, "client-secret", os.Getenv("SHOPIFY_CLIENT_SECRET"), "app client secret used to sign session tokens")

	cmd.AddCommand(newDumpCmd(opts))
	return cmd
}

func runInteractive(ctx context.Context, opts *browseOptions) error {
	// The terminal belongs to the TUI; logs would tear the screen.
	c, err := opts.client(logger.NewWithOutput("error", io.Discard))
	if err != nil {
		return err
	}
	mode, err := presentation.ParseGalleryMode(opts.galleryMode)
	if err != nil {
		return err
	}

	model := tui.NewModel(ctx, tui.Config{
		Loader:       c,
		Fetcher:      c,
		Dispatcher:   c,
		View:         c.View(),
		GalleryMode:  mode,
		FetchTimeout: opts.fetchTimeout,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run interactive browser: %w", err)
	}
	if model.IsAuthError() {
		return fmt.Errorf("shop %s is not installed: %w", opts.shop, catalog.ErrAuth)
	}
	return nil
}

func newDumpCmd(opts *browseOptions) *cobra.Command {
	var maxPages int

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every product without the interactive browser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.NewWithOutput(opts.logLevel, cmd.ErrOrStderr())
			c, err := opts.client(log)
			if err != nil {
				return err
			}
			acc := catalog.NewAccumulator(c, catalog.WithFetchTimeout(opts.fetchTimeout))
			return dump(cmd.Context(), cmd.OutOrStdout(), c, acc, maxPages)
		},
	}
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages (0 for all)")
	return cmd
}

// dump seeds acc from the loader and keeps loading until the last page or
// maxPages, then prints one tab-separated line per product.
func dump(ctx context.Context, w io.Writer, loader tui.PageLoader, acc *catalog.Accumulator, maxPages int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := acc.Seed(loader.LoadPage(ctx, "")); err != nil {
		return fmt.Errorf("failed to seed product list: %w", err)
	}
	if snap := acc.Snapshot(); snap.Err != nil {
		return fmt.Errorf("failed to load first page: %w", snap.Err)
	}

	pages := 1
	for maxPages <= 0 || pages < maxPages {
		err := acc.LoadMore(ctx)
		if errors.Is(err, catalog.ErrNoMorePages) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to load page %d: %w", pages+1, err)
		}
		pages++
	}

	for _, item := range acc.Snapshot().Items {
		row := presentation.RowFor(item)
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", row.ID, row.Title, row.ImageURL); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
