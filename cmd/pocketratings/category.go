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
	rootCmd.AddCommand(categoryCmd)
	categoryCmd.AddCommand(categoryCreateCmd, categoryListCmd, categoryShowCmd, categoryUpdateCmd, categoryDeleteCmd)
	addOutputFlag(categoryCreateCmd, categoryListCmd, categoryShowCmd, categoryUpdateCmd)

	categoryCreateCmd.Flags().String("name", "", "Category name (required)")
	categoryCreateCmd.Flags().String("parent-id", "", "Parent category; omit for a top-level category")
	categoryCreateCmd.MarkFlagRequired("name")

	categoryListCmd.Flags().String("parent-id", "", "Only direct children of this category")
	categoryListCmd.Flags().Bool("include-deleted", false, "Include soft-deleted categories")

	categoryUpdateCmd.Flags().String("name", "", "New name")
	categoryUpdateCmd.Flags().String("parent-id", "", "New parent category")
	categoryUpdateCmd.Flags().Bool("root", false, "Move the category to the top level")
	categoryUpdateCmd.MarkFlagsMutuallyExclusive("parent-id", "root")

	categoryDeleteCmd.Flags().Bool("force", false, "Remove the row instead of soft-deleting it")
}

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage product categories",
}

var categoryCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a category",
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
		parentID, err := optionalID(cmd, "parent-id", "parent category")
		if err != nil {
			return err
		}

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		c, err := store.NewCategoryStore(db).Create(cmd.Context(), parentID, name)
		if err != nil {
			return err
		}
		notify(cmd.Context(), cfg, db, cache.Category, c.ID, "create")

		if asJSON {
			return printJSON(cmd.OutOrStdout(), c)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created category %s (%s)\n", c.Name, c.ID)
		return nil
	},
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		parentID, err := optionalID(cmd, "parent-id", "parent category")
		if err != nil {
			return err
		}
		withDeleted, _ := cmd.Flags().GetBool("include-deleted")

		_, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		all, err := store.NewCategoryStore(db).List(cmd.Context(), withDeleted)
		if err != nil {
			return err
		}
		items := all
		if parentID != nil {
			items = items[:0:0]
			for _, c := range all {
				if c.ParentID != nil && *c.ParentID == *parentID {
					items = append(items, c)
				}
			}
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), items)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPARENT\tDELETED")
		for _, c := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, parentLabel(c), when(c.DeletedAt))
		}
		return tw.Flush()
	},
}

var categoryShowCmd = &cobra.Command{
	Use:   "show <category-id>",
	Short: "Show one category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		id, err := parseID("category", args[0])
		if err != nil {
			return err
		}

		_, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		c, err := store.NewCategoryStore(db).FindByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printCategory(cmd.OutOrStdout(), c, asJSON)
	},
}

var categoryUpdateCmd = &cobra.Command{
	Use:   "update <category-id>",
	Short: "Rename or move a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		id, err := parseID("category", args[0])
		if err != nil {
			return err
		}
		parentID, err := optionalID(cmd, "parent-id", "parent category")
		if err != nil {
			return err
		}
		toRoot, _ := cmd.Flags().GetBool("root")
		var name string
		if cmd.Flags().Changed("name") {
			raw, _ := cmd.Flags().GetString("name")
			if name, err = models.CleanName("name", raw, models.MaxNameLen); err != nil {
				return err
			}
		}

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		categories := store.NewCategoryStore(db)
		existing, err := categories.FindByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		if name == "" {
			name = existing.Name
		}
		if parentID == nil && !toRoot {
			parentID = existing.ParentID
		}

		c, changed, err := categories.Update(cmd.Context(), id, name, parentID)
		if err != nil {
			return err
		}
		if changed {
			notify(cmd.Context(), cfg, db, cache.Category, id, "update")
		}
		return printCategory(cmd.OutOrStdout(), c, asJSON)
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete <category-id>",
	Short: "Delete a category",
	Long: `Soft-deletes a category without active children or products.
With --force the row is removed; this still fails while any row
references it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("category", args[0])
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.NewCategoryStore(db).Delete(cmd.Context(), id, force); err != nil {
			return err
		}
		notify(cmd.Context(), cfg, db, cache.Category, id, "delete")
		fmt.Fprintf(cmd.OutOrStdout(), "deleted category %s\n", id)
		return nil
	},
}

func parentLabel(c models.Category) string {
	if c.ParentID == nil {
		return "root"
	}
	return c.ParentID.String()
}

func printCategory(w io.Writer, c *models.Category, asJSON bool) error {
	if asJSON {
		return printJSON(w, c)
	}
	_, err := fmt.Fprintf(w, "category %s: %s (parent: %s)\n", c.ID, c.Name, parentLabel(*c))
	return err
}
