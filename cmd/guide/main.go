// Command guide drives the place aggregation store from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/local-guide/internal/domain/catalog"
	"github.com/FACorreiaa/local-guide/internal/domain/favorites/client"
	"github.com/FACorreiaa/local-guide/internal/domain/guide"
	"github.com/FACorreiaa/local-guide/internal/domain/localstore"
	"github.com/FACorreiaa/local-guide/internal/domain/placesearch"
	"github.com/FACorreiaa/local-guide/internal/types"
	"github.com/FACorreiaa/local-guide/pkg/config"
)

type globalOptions struct {
	configPath string
	lat, lon   float64
	asJSON     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:          "guide",
		Short:        "Browse, save and favorite places around you",
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (defaults to $"+config.PathEnv+")")
	rootCmd.PersistentFlags().Float64Var(&opts.lat, "lat", 0, "device latitude")
	rootCmd.PersistentFlags().Float64Var(&opts.lon, "lon", 0, "device longitude")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")

	rootCmd.AddCommand(
		placesCmd(opts),
		addCmd(opts),
		updateCmd(opts),
		deleteCmd(opts),
		visitCmd(opts),
		favoriteCmd(opts),
		favoritesCmd(opts),
		discoverCmd(opts),
		searchCmd(opts),
		detailsCmd(opts),
		categoriesCmd(opts),
	)
	return rootCmd
}

// app is the store plus the wiring one command invocation needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *guide.Store
	cat    *catalog.Catalog
	out    io.Writer
	asJSON bool
}

func newApp(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	ctx := cmd.Context()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())

	kv, err := localstore.OpenSQLite(ctx, cfg.Guide.DataPath)
	if err != nil {
		return nil, err
	}

	search := placesearch.NewClient(placesearch.Config{
		APIKey:            cfg.Places.APIKey,
		BaseURL:           cfg.Places.BaseURL,
		Timeout:           cfg.Places.Timeout,
		RequestsPerSecond: cfg.Places.RequestsPerSecond,
		Burst:             cfg.Places.Burst,
		PhotoMaxWidth:     cfg.Places.PhotoMaxWidth,
		LanguageCode:      cfg.Places.LanguageCode,
	}, logger)

	var remote guide.FavoritesRemote
	if cfg.Guide.FavoritesURL != "" && cfg.Auth.Token != "" {
		remote = client.New(cfg.Guide.FavoritesURL, client.BearerToken(cfg.Auth.Token), logger,
			client.WithTimeout(cfg.Guide.FavoritesTimeout))
	}

	errOut := cmd.ErrOrStderr()
	locator := guide.LocatorFunc(func(context.Context) error {
		_, err := fmt.Fprintln(errOut, "location unknown: pass --lat and --lon")
		return err
	})

	cat := catalog.New(logger, nil)
	if err := cat.Load(ctx); err != nil {
		logger.WarnContext(ctx, "using built-in categories", slog.Any("error", err))
	}

	sess := guide.NewSession(search, remote, localstore.NewPlaces(kv, logger), locator)
	sess.Close = kv.Close

	store := guide.New(sess, cat, logger, guide.Options{
		NearbyTTL:           cfg.Guide.NearbyTTL,
		SearchTTL:           cfg.Guide.SearchTTL,
		MinDiscoverInterval: cfg.Guide.MinDiscoverInterval,
		MaxResults:          cfg.Guide.MaxResults,
		MinQueryLength:      cfg.Guide.MinQueryLength,
		MoveThresholdKm:     cfg.Guide.MoveThresholdKm,
	})

	flags := cmd.Flags()
	if flags.Changed("lat") || flags.Changed("lon") {
		if err := store.SetCoordinate(types.Coordinate{Latitude: opts.lat, Longitude: opts.lon}); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		cat:    cat,
		out:    cmd.OutOrStdout(),
		asJSON: opts.asJSON,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// withApp opens the app for one command and closes it afterwards.
func withApp(opts *globalOptions, run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}
