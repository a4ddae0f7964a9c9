package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/spherical-ai/spherical/libs/showroom/internal/app"
	"github.com/spherical-ai/spherical/libs/showroom/internal/catalog"
	"github.com/spherical-ai/spherical/libs/showroom/internal/comparison"
	"github.com/spherical-ai/spherical/libs/showroom/internal/filter"
	"github.com/spherical-ai/spherical/libs/showroom/internal/locale"
	"github.com/spherical-ai/spherical/libs/showroom/internal/product"
	"github.com/spherical-ai/spherical/libs/showroom/internal/storage"
)

const readTimeout = 30 * time.Second

// openCatalog opens the database and cache behind the catalog accessor. The
// returned func releases both.
func openCatalog(ctx context.Context) (*catalog.Catalog, *storage.VehicleRepository, func(), error) {
	db, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	cacheClient, err := app.OpenCache(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("open cache: %w", err)
	}
	cleanup := func() {
		cacheClient.Close()
		db.Close()
	}
	return app.NewCatalog(cfg, db, cacheClient, logger), storage.NewVehicleRepository(db), cleanup, nil
}

// newVehiclesCmd creates the vehicles subcommand.
func newVehiclesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List and inspect catalog vehicles",
	}
	cmd.AddCommand(newVehiclesListCmd())
	cmd.AddCommand(newVehiclesShowCmd())
	return cmd
}

func newVehiclesListCmd() *cobra.Command {
	var (
		category string
		lang     string
		featured bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vehicles, optionally of one category",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), readTimeout)
			defer cancel()

			cat, _, cleanup, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			loc := locale.Parse(lang)
			var vehicles []storage.Vehicle
			if featured {
				vehicles, err = cat.Featured(ctx, loc, 0)
			} else {
				vehicles, err = cat.Vehicles(ctx, category, loc)
			}
			if err != nil {
				return err
			}

			views := product.FromVehicles(vehicles, loc)
			if outputJSON {
				return ui.JSON(views)
			}
			if len(views) == 0 {
				ui.Warning("No vehicles found")
				return nil
			}
			ui.Table(vehicleHeaders, vehicleRows(views, loc))
			ui.Info("%d vehicles", len(views))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category slug")
	cmd.Flags().StringVar(&lang, "locale", string(locale.Default), "display locale")
	cmd.Flags().BoolVar(&featured, "featured", false, "list featured vehicles only")
	return cmd
}

func newVehiclesShowCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), readTimeout)
			defer cancel()

			cat, _, cleanup, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			loc := locale.Parse(lang)
			v, err := cat.VehicleByID(ctx, args[0], loc)
			if err != nil {
				return err
			}
			view := product.FromVehicle(*v, loc)
			if outputJSON {
				return ui.JSON(view)
			}

			ui.Section(view.Name)
			ui.KeyValue("ID", view.ID)
			ui.KeyValue("Brand", view.Brand)
			ui.KeyValue("Model", view.Model)
			ui.KeyValue("Category", view.Category)
			if view.Subcategory != "" {
				ui.KeyValue("Subcategory", view.Subcategory)
			}
			ui.KeyValue("Availability", view.Availability)
			ui.KeyValue("Price", formatPrice(view.Price, loc))
			ui.KeyValue("Page", view.Href)

			ui.Section("Specs")
			for _, row := range comparison.BuildTable([]product.View{view}).Rows {
				ui.KeyValue(row.Label, row.Values[0])
			}
			for key, value := range view.ExtraSpecs {
				ui.KeyValue(key, value)
			}
			if len(view.OptionalFeatures) > 0 {
				ui.Section("Optional features")
				for _, f := range view.OptionalFeatures {
					fmt.Fprintf(ui.out, "  • %s\n", f)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "locale", string(locale.Default), "display locale")
	return cmd
}

// newCatalogCmd creates the catalog subcommand.
func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Query the catalog like the storefront grid",
	}
	cmd.AddCommand(newCatalogFilterCmd())
	cmd.AddCommand(newCatalogCategoriesCmd())
	return cmd
}

func newCatalogFilterCmd() *cobra.Command {
	var (
		query      string
		category   string
		lang       string
		selections []string
		autonomy   string
		minPrice   string
		maxPrice   string
		sortBy     string
		searchType bool
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Filter, sort and count vehicles",
		Example: `  showroom-cli catalog filter --q asya --filter autonomy=50to100 --sort price-asc
  showroom-cli catalog filter --category monopattini --filter subcategory=Monopattini`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if autonomy != "" {
				selections = append(selections, filter.SectionAutonomy+"="+autonomy)
			}
			values, err := filterValues(query, selections, minPrice, maxPrice, sortBy, searchType)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), readTimeout)
			defer cancel()

			cat, _, cleanup, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			loc := locale.Parse(lang)
			vehicles, err := cat.Vehicles(ctx, category, loc)
			if err != nil {
				return err
			}

			sections := filter.StandardSections()
			if category != "" {
				sections = filter.CategoryPageSections()
			}
			st := filter.ParseState(values, loc)
			res := filter.Apply(product.FromVehicles(vehicles, loc), st, sections)

			if outputJSON {
				return ui.JSON(res)
			}

			if len(res.Items) == 0 {
				ui.Warning("No vehicles match")
			} else {
				ui.Table(vehicleHeaders, vehicleRows(res.Items, loc))
			}
			ui.Info("%d of %d vehicles, sorted by %s", res.Total, len(vehicles), st.SortBy)

			ui.Section("Filters")
			ui.Table([]string{"Filter", "Option", "Count", ""}, facetRows(res.Facets))
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "q", "", "text search over name, brand and category")
	cmd.Flags().StringVar(&category, "category", "", "category slug, switches to the category page filters")
	cmd.Flags().StringVar(&lang, "locale", string(locale.Default), "display locale")
	cmd.Flags().StringArrayVar(&selections, "filter", nil, "section=value selection, repeatable")
	cmd.Flags().StringVar(&autonomy, "autonomy", "", "autonomy bucket: under50, 50to100 or over100")
	cmd.Flags().StringVar(&minPrice, "min", "", "minimum price")
	cmd.Flags().StringVar(&maxPrice, "max", "", "maximum price")
	cmd.Flags().StringVar(&sortBy, "sort", "", "newest, price-asc, price-desc or name-asc")
	cmd.Flags().BoolVar(&searchType, "type", false, "also search the vehicle type")
	return cmd
}

func newCatalogCategoriesCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories with vehicle counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), readTimeout)
			defer cancel()

			cat, _, cleanup, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			loc := locale.Parse(lang)
			categories, err := cat.Categories(ctx, loc)
			if err != nil {
				return err
			}
			if outputJSON {
				return ui.JSON(categories)
			}

			rows := make([][]string, 0, len(categories))
			for _, c := range categories {
				href := c.Href
				if href == "" {
					href = "/prodotti/" + c.Slug
				}
				rows = append(rows, []string{c.Slug, c.Name, strconv.Itoa(c.Count), product.LocalizePath(loc, href)})
			}
			ui.Table([]string{"Slug", "Name", "Vehicles", "Page"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "locale", string(locale.Default), "display locale")
	return cmd
}

// newCompareCmd creates the compare subcommand.
func newCompareCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "compare <id> <id> [id...]",
		Short: "Print a side-by-side comparison of up to four vehicles",
		Args:  cobra.MinimumNArgs(comparison.MinVehicles),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := comparison.ParseIDs(strings.Join(args, ","), comparison.MaxRequestIDs)
			if len(args) > len(ids) {
				ui.Warning("Comparing %d vehicles, duplicates and extra ids are ignored", len(ids))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), readTimeout)
			defer cancel()

			cat, _, cleanup, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			table, err := comparison.Resolve(ctx, cat, ids, locale.Parse(lang))
			if errors.Is(err, comparison.ErrTooFewVehicles) {
				return fmt.Errorf("%w: %s", err, strings.Join(ids, ", "))
			}
			if err != nil {
				return err
			}

			if outputJSON {
				return ui.JSON(table)
			}
			headers, rows := comparisonRows(*table)
			ui.Table(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "locale", string(locale.Default), "display locale")
	return cmd
}

var vehicleHeaders = []string{"ID", "Name", "Brand", "Category", "Range", "Price", "Availability"}

func vehicleRows(views []product.View, loc locale.Locale) [][]string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		category := v.Category
		if v.Subcategory != "" && v.Subcategory != v.Category {
			category += " / " + v.Subcategory
		}
		rows = append(rows, []string{
			v.ID,
			v.Name,
			v.Brand,
			category,
			orMissing(v.Range),
			formatPrice(v.Price, loc),
			string(v.Availability),
		})
	}
	return rows
}

func facetRows(facets []filter.Facet) [][]string {
	var rows [][]string
	for _, f := range facets {
		for i, opt := range f.Options {
			label := ""
			if i == 0 {
				label = f.Label
			}
			mark := ""
			if opt.Selected {
				mark = "●"
			}
			rows = append(rows, []string{label, opt.Label, strconv.Itoa(opt.Count), mark})
		}
	}
	return rows
}

func comparisonRows(t comparison.Table) ([]string, [][]string) {
	headers := []string{""}
	for _, v := range t.Vehicles {
		headers = append(headers, v.Name)
	}

	var rows [][]string
	for _, r := range t.Rows {
		rows = append(rows, append([]string{r.Label}, r.Values...))
	}
	for _, f := range t.Features {
		row := []string{f.Name}
		for _, present := range f.Present {
			if present {
				row = append(row, "✓")
			} else {
				row = append(row, "✗")
			}
		}
		rows = append(rows, row)
	}
	return headers, rows
}

// filterValues turns command flags into the query parameters the grid reads.
func filterValues(query string, selections []string, minPrice, maxPrice, sortBy string, searchType bool) (url.Values, error) {
	values := url.Values{}
	if query != "" {
		values.Set("q", query)
	}
	for _, sel := range selections {
		id, value, ok := strings.Cut(sel, "=")
		if !ok || strings.TrimSpace(id) == "" || strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("invalid --filter %q, expected section=value", sel)
		}
		values.Add("f."+strings.TrimSpace(id), strings.TrimSpace(value))
	}
	if minPrice != "" {
		values.Set("min", minPrice)
	}
	if maxPrice != "" {
		values.Set("max", maxPrice)
	}
	if sortBy != "" {
		if !filter.SortKey(sortBy).Valid() {
			return nil, fmt.Errorf("unknown sort %q", sortBy)
		}
		values.Set("sort", sortBy)
	}
	if searchType {
		values.Set("type", "1")
	}
	return values, nil
}

func formatPrice(price *float64, loc locale.Locale) string {
	if price == nil {
		return comparison.Missing
	}
	return message.NewPrinter(loc.Tag()).Sprintf("€ %.2f", *price)
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return comparison.Missing
	}
	return s
}
