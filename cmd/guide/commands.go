package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/local-guide/internal/domain/guide"
	"github.com/FACorreiaa/local-guide/internal/types"
)

func placesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "places",
		Short: "List places saved on this device",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.store.LoadLocalPlaces(cmd.Context()); err != nil {
				return err
			}
			return a.printPlaces(a.store.Snapshot().CustomPlaces)
		}),
	}
}

func addCmd(opts *globalOptions) *cobra.Command {
	var form types.PlaceForm
	var tags string

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Save a custom place",
		Long: `Save a custom place on this device.

Examples:
  guide add "Grandma's bakery" --latitude 38.71 --longitude -9.14 --category cafes
  guide add Viewpoint --latitude 38.72 --longitude -9.13 --tags sunset,walk`,
		Args: cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			if err := a.store.LoadLocalPlaces(ctx); err != nil {
				return err
			}
			form.Name = strings.Join(args, " ")
			form.Tags = splitTags(tags)
			p, err := a.store.AddPlace(ctx, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added place: %s\n", p.ID)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&form.Description, "description", "", "description")
	f.StringVar(&form.Address, "address", "", "street address")
	f.Float64Var(&form.Latitude, "latitude", 0, "place latitude")
	f.Float64Var(&form.Longitude, "longitude", 0, "place longitude")
	f.StringVar(&form.ImageURI, "image", "", "image URI")
	f.StringVar(&form.Category, "category", "", "category id")
	f.StringVar(&tags, "tags", "", "comma separated tags")
	_ = cmd.MarkFlagRequired("latitude")
	_ = cmd.MarkFlagRequired("longitude")
	return cmd
}

func updateCmd(opts *globalOptions) *cobra.Command {
	var (
		name, description, address, image, category, tags string
		latitude, longitude                                 float64
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a custom place",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			if err := a.store.LoadLocalPlaces(ctx); err != nil {
				return err
			}

			f := cmd.Flags()
			var patch types.PlacePatch
			if f.Changed("name") {
				patch.Name = &name
			}
			if f.Changed("description") {
				patch.Description = &description
			}
			if f.Changed("address") {
				patch.Address = &address
			}
			if f.Changed("image") {
				patch.ImageURI = &image
			}
			if f.Changed("category") {
				patch.Category = &category
			}
			if f.Changed("latitude") {
				patch.Latitude = &latitude
			}
			if f.Changed("longitude") {
				patch.Longitude = &longitude
			}
			if f.Changed("tags") {
				t := splitTags(tags)
				patch.Tags = &t
			}

			if err := a.store.UpdatePlace(ctx, args[0], patch); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated place: %s\n", args[0])
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "name")
	f.StringVar(&description, "description", "", "description")
	f.StringVar(&address, "address", "", "street address")
	f.StringVar(&image, "image", "", "image URI")
	f.StringVar(&category, "category", "", "category id")
	f.StringVar(&tags, "tags", "", "comma separated tags")
	f.Float64Var(&latitude, "latitude", 0, "place latitude")
	f.Float64Var(&longitude, "longitude", 0, "place longitude")
	return cmd
}

func deleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a custom place",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			if err := a.store.LoadLocalPlaces(ctx); err != nil {
				return err
			}
			if err := a.store.DeletePlace(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted place: %s\n", args[0])
			return nil
		}),
	}
}

func visitCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "visit <id>",
		Short: "Record a visit to a custom place",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			if err := a.store.LoadLocalPlaces(ctx); err != nil {
				return err
			}
			if err := a.store.IncrementVisitCount(ctx, args[0]); err != nil {
				return err
			}
			p, _ := a.store.GetPlace(args[0])
			fmt.Fprintf(a.out, "Visits to %s: %d\n", p.Name, p.VisitCount)
			return nil
		}),
	}
}

func favoriteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle the favorite flag of a place",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			if err := a.loadSaved(cmd); err != nil {
				return err
			}
			if err := a.store.ToggleFavorite(ctx, args[0]); err != nil {
				return err
			}
			p, _ := a.store.GetPlace(args[0])
			if p.IsFavorite {
				fmt.Fprintf(a.out, "Favorited: %s\n", args[0])
			} else {
				fmt.Fprintf(a.out, "Unfavorited: %s\n", args[0])
			}
			return nil
		}),
	}
}

func favoritesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "favorites",
		Short: "List favorites from the backend and this device",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.loadSaved(cmd); err != nil {
				return err
			}
			if a.store.Snapshot().NotLoggedIn {
				fmt.Fprintln(cmd.ErrOrStderr(), "not signed in: showing favorites saved on this device only")
			}
			return a.printPlaces(a.store.Favorites())
		}),
	}
}

func discoverCmd(opts *globalOptions) *cobra.Command {
	var (
		category string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find places near the device for a category",
		Long: `Find places near the device for a category.

Examples:
  guide discover --lat 38.71 --lon -9.14
  guide discover --lat 38.71 --lon -9.14 --category museums --force`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()
			if category != "" {
				if err := a.store.SetActiveCategory(category); err != nil {
					return err
				}
			}
			if err := a.loadSaved(cmd); err != nil {
				return err
			}
			if err := a.store.RefreshDiscover(ctx, guide.DiscoverOptions{Force: force}); err != nil {
				return reportVendorError(a.store.Snapshot().DiscoverError, err)
			}
			return a.printPlaces(a.store.Snapshot().DiscoverResults)
		}),
	}
	cmd.Flags().StringVar(&category, "category", "", "category id (see 'guide categories')")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the cache and the refresh interval")
	return cmd
}

func searchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search places by text",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.loadSaved(cmd); err != nil {
				return err
			}
			if err := a.store.SearchPlaces(cmd.Context(), strings.Join(args, " ")); err != nil {
				return reportVendorError(a.store.Snapshot().SearchError, err)
			}
			return a.printPlaces(a.store.Snapshot().SearchResults)
		}),
	}
}

func detailsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "details <id>",
		Short: "Show everything known about a place",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.loadSaved(cmd); err != nil {
				return err
			}
			p, ok := a.store.GetPlace(args[0])
			if !ok || p.Source != types.SourceCustom {
				fetched, err := a.store.FetchPlaceDetails(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				p = fetched
			}
			return writeJSON(a, p)
		}),
	}
}

func categoriesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List discover categories",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(_ *cobra.Command, a *app, _ []string) error {
			cats := a.cat.All()
			if a.asJSON {
				return writeJSON(a, cats)
			}
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPES")
			for _, c := range cats {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, strings.Join(c.IncludedTypes, ","))
			}
			return w.Flush()
		}),
	}
}

// loadSaved loads local places and remote favorites so toggles and lookups
// see the current state.
func (a *app) loadSaved(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if err := a.store.LoadLocalPlaces(ctx); err != nil {
		return err
	}
	if err := a.store.LoadFavorites(ctx); err != nil {
		a.logger.WarnContext(ctx, "favorites unavailable", "error", err)
	}
	return nil
}

func (a *app) printPlaces(places []types.Place) error {
	if a.asJSON {
		return writeJSON(a, places)
	}
	if len(places) == 0 {
		fmt.Fprintln(a.out, "No places.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tDISTANCE\tFAVORITE\tVISITS")
	for _, p := range places {
		distance := "-"
		if p.DistanceKm != nil {
			distance = fmt.Sprintf("%.1f km", *p.DistanceKm)
		}
		fav := ""
		if p.IsFavorite {
			fav = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Category, distance, fav, p.VisitCount)
	}
	return w.Flush()
}

func writeJSON(a *app, v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportVendorError prefers the user-facing message the store recorded.
func reportVendorError(message string, err error) error {
	if message == "" {
		return err
	}
	return errors.New(message)
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
