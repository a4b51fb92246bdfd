// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pocketratings/internal/cache"
	"pocketratings/internal/models"
	"pocketratings/internal/store"
)

func init() {
	rootCmd.AddCommand(locationCmd)
	locationCmd.AddCommand(locationCreateCmd, locationListCmd, locationShowCmd, locationUpdateCmd, locationDeleteCmd)
	addOutputFlag(locationCreateCmd, locationListCmd, locationShowCmd, locationUpdateCmd)

	locationCreateCmd.Flags().String("name", "", "Location name (required)")
	locationCreateCmd.MarkFlagRequired("name")

	locationListCmd.Flags().Bool("include-deleted", false, "Include soft-deleted locations")

	locationUpdateCmd.Flags().String("name", "", "New name (required)")
	locationUpdateCmd.MarkFlagRequired("name")

	locationDeleteCmd.Flags().Bool("force", false, "Remove the row instead of soft-deleting it")
}

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Manage purchase locations",
}

var locationCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		raw, _ := cmd.Flags().GetString("name")
		name, err := models.CleanName("name", raw, models.MaxNameLen)
		if err != nil {
			return err
		}

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		l, err := store.NewLocationStore(db).Create(cmd.Context(), name)
		if err != nil {
			return err
		}
		notify(cmd.Context(), cfg, db, cache.Location, l.ID, "create")
		return printLocation(cmd.OutOrStdout(), l, asJSON)
	},
}

var locationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		withDeleted, _ := cmd.Flags().GetBool("include-deleted")

		_, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := store.NewLocationStore(db).List(cmd.Context(), withDeleted)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), items)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tDELETED")
		for _, l := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", l.ID, l.Name, when(l.DeletedAt))
		}
		return tw.Flush()
	},
}

var locationShowCmd = &cobra.Command{
	Use:   "show <location-id>",
	Short: "Show one location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		id, err := parseID("location", args[0])
		if err != nil {
			return err
		}

		_, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		l, err := store.NewLocationStore(db).FindByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printLocation(cmd.OutOrStdout(), l, asJSON)
	},
}

var locationUpdateCmd = &cobra.Command{
	Use:   "update <location-id>",
	Short: "Rename a location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		id, err := parseID("location", args[0])
		if err != nil {
			return err
		}
		raw, _ := cmd.Flags().GetString("name")
		name, err := models.CleanName("name", raw, models.MaxNameLen)
		if err != nil {
			return err
		}

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		l, changed, err := store.NewLocationStore(db).Update(cmd.Context(), id, name)
		if err != nil {
			return err
		}
		if changed {
			notify(cmd.Context(), cfg, db, cache.Location, id, "update")
		}
		return printLocation(cmd.OutOrStdout(), l, asJSON)
	},
}

var locationDeleteCmd = &cobra.Command{
	Use:   "delete <location-id>",
	Short: "Delete a location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("location", args[0])
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.NewLocationStore(db).Delete(cmd.Context(), id, force); err != nil {
			return err
		}
		notify(cmd.Context(), cfg, db, cache.Location, id, "delete")
		fmt.Fprintf(cmd.OutOrStdout(), "deleted location %s\n", id)
		return nil
	},
}

func printLocation(w io.Writer, l *models.Location, asJSON bool) error {
	if asJSON {
		return printJSON(w, l)
	}
	_, err := fmt.Fprintf(w, "location %s: %s\n", l.ID, l.Name)
	return err
}
