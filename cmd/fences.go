package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/placepulse/fencewatch/internal/model"
	"github.com/placepulse/fencewatch/internal/region"
)

var fencesCmd = &cobra.Command{
	Use:   "fences",
	Short: "Manage monitored geofences",
}

var fencesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered geofences",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		registry := region.NewRegistry(st)
		if err := registry.Load(ctx); err != nil {
			return err
		}

		fences := registry.List()
		if len(fences) == 0 {
			fmt.Println("no fences registered")
			return nil
		}
		for _, f := range fences {
			state := "outside"
			if f.Inside {
				state = "inside"
			}
			fmt.Printf("%-20s  %10.6f, %11.6f  r=%.0fm  %s\n",
				f.ID, f.Center.Latitude, f.Center.Longitude, f.Radius, state)
		}
		return nil
	},
}

var fencesAddCmd = &cobra.Command{
	Use:   "add <id> <latitude> <longitude> <radius-meters>",
	Short: "Register a new geofence",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Wrap(err, "parse latitude")
		}
		lng, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return eris.Wrap(err, "parse longitude")
		}
		radius, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return eris.Wrap(err, "parse radius")
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		registry := region.NewRegistry(st)
		if err := registry.Load(ctx); err != nil {
			return err
		}

		center := model.Coordinate{Latitude: lat, Longitude: lng}
		if err := registry.Add(ctx, args[0], center, radius); err != nil {
			return err
		}
		fmt.Printf("added fence %s\n", args[0])
		return nil
	},
}

var fencesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a geofence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		registry := region.NewRegistry(st)
		if err := registry.Load(ctx); err != nil {
			return err
		}
		if err := registry.Remove(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("removed fence %s\n", args[0])
		return nil
	},
}

// fenceFile is the YAML shape accepted by `fences load`.
type fenceFile struct {
	Fences []struct {
		ID        string  `yaml:"id"`
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
		Radius    float64 `yaml:"radius_meters"`
	} `yaml:"fences"`
}

var fencesLoadCmd = &cobra.Command{
	Use:   "load <file.yaml>",
	Short: "Bulk-register geofences from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}
		var file fenceFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return eris.Wrapf(err, "parse %s", args[0])
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		registry := region.NewRegistry(st)
		if err := registry.Load(ctx); err != nil {
			return err
		}

		added := 0
		for _, f := range file.Fences {
			center := model.Coordinate{Latitude: f.Latitude, Longitude: f.Longitude}
			err := registry.Add(ctx, f.ID, center, f.Radius)
			switch {
			case eris.Is(err, region.ErrDuplicateRegion):
				zap.L().Warn("fence already registered", zap.String("id", f.ID))
			case err != nil:
				return err
			default:
				added++
			}
		}
		fmt.Printf("added %d of %d fences\n", added, len(file.Fences))
		return nil
	},
}

func init() {
	fencesCmd.AddCommand(fencesListCmd, fencesAddCmd, fencesRemoveCmd, fencesLoadCmd)
	rootCmd.AddCommand(fencesCmd)
}
