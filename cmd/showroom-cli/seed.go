package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/showroom/internal/storage"
)

// newSeedCmd creates the seed subcommand.
func newSeedCmd() *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load vehicles from a JSON export into the catalog",
		Long: `Seed upserts every vehicle of a JSON export into the catalog database and
drops the cached catalog reads afterwards.

The file holds either an array of vehicles or an object with a "vehicles"
array. Existing vehicles with the same id are replaced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open seed file: %w", err)
			}
			defer f.Close()

			vehicles, err := decodeVehicles(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			ui.Info("Read %d vehicles from %s", len(vehicles), file)
			if dryRun {
				ui.Table(vehicleHeaders[:4], seedRows(vehicles))
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			cat, repo, cleanup, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			start := time.Now()
			bar := ui.ProgressBar(len(vehicles), "Seeding")
			for i := range vehicles {
				if err := repo.Upsert(ctx, &vehicles[i]); err != nil {
					return err
				}
				if bar != nil {
					_ = bar.Add(1)
				}
			}

			if err := cat.Invalidate(ctx); err != nil {
				ui.Warning("Catalog cache not invalidated: %v", err)
			}
			logger.Info().Int("vehicles", len(vehicles)).Dur("duration", time.Since(start)).Msg("Catalog seeded")

			if outputJSON {
				return ui.JSON(map[string]interface{}{"seeded": len(vehicles)})
			}
			ui.Success("Seeded %d vehicles in %s", len(vehicles), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "vehicles JSON file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// decodeVehicles reads a seed file and validates every record before any of
// them is written.
func decodeVehicles(r io.Reader) ([]storage.Vehicle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var vehicles []storage.Vehicle
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Vehicles []storage.Vehicle `json:"vehicles"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("decode vehicles: %w", err)
		}
		vehicles = wrapped.Vehicles
	} else if err := json.Unmarshal(trimmed, &vehicles); err != nil {
		return nil, fmt.Errorf("decode vehicles: %w", err)
	}

	if len(vehicles) == 0 {
		return nil, fmt.Errorf("no vehicles in file")
	}

	seen := make(map[string]int, len(vehicles))
	for i := range vehicles {
		v := &vehicles[i]
		v.ID = strings.TrimSpace(v.ID)
		if v.ID == "" {
			return nil, fmt.Errorf("vehicle %d: id is required", i)
		}
		if prev, ok := seen[v.ID]; ok {
			return nil, fmt.Errorf("vehicle %d: duplicate id %q (first at %d)", i, v.ID, prev)
		}
		seen[v.ID] = i
		if strings.TrimSpace(v.Name) == "" {
			return nil, fmt.Errorf("vehicle %q: name is required", v.ID)
		}
		if v.Availability != "" && !v.Availability.Valid() {
			return nil, fmt.Errorf("vehicle %q: unknown availability %q", v.ID, v.Availability)
		}
	}
	return vehicles, nil
}

func seedRows(vehicles []storage.Vehicle) [][]string {
	rows := make([][]string, 0, len(vehicles))
	for _, v := range vehicles {
		rows = append(rows, []string{v.ID, v.Name, v.Brand, v.Category})
	}
	return rows
}
