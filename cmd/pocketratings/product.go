// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pocketratings/internal/cache"
	"pocketratings/internal/models"
	"pocketratings/internal/store"
	"pocketratings/internal/tree"
)

func init() {
	rootCmd.AddCommand(productCmd)
	productCmd.AddCommand(productCreateCmd, productListCmd, productShowCmd, productUpdateCmd, productDeleteCmd)
	addOutputFlag(productCreateCmd, productListCmd, productShowCmd, productUpdateCmd)

	productCreateCmd.Flags().String("category-id", "", "Category of the product (required)")
	productCreateCmd.Flags().String("brand", "", "Brand (required)")
	productCreateCmd.Flags().String("name", "", "Product name (required)")
	productCreateCmd.MarkFlagRequired("category-id")
	productCreateCmd.MarkFlagRequired("brand")
	productCreateCmd.MarkFlagRequired("name")

	productListCmd.Flags().String("category-id", "", "Only products in this category or below it")
	productListCmd.Flags().StringP("query", "q", "", "Case-insensitive match on brand or name")
	productListCmd.Flags().Bool("include-deleted", false, "Include soft-deleted products")

	productUpdateCmd.Flags().String("category-id", "", "Move to another category")
	productUpdateCmd.Flags().String("brand", "", "New brand")
	productUpdateCmd.Flags().String("name", "", "New name")

	productDeleteCmd.Flags().Bool("force", false, "Remove the row instead of soft-deleting it")
}

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Manage products",
}

var productCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		categoryID, err := optionalID(cmd, "category-id", "category")
		if err != nil {
			return err
		}
		rawBrand, _ := cmd.Flags().GetString("brand")
		brand, err := models.CleanName("brand", rawBrand, models.MaxBrandLen)
		if err != nil {
			return err
		}
		rawName, _ := cmd.Flags().GetString("name")
		name, err := models.CleanName("name", rawName, models.MaxNameLen)
		if err != nil {
			return err
		}
		if categoryID == nil {
			return fmt.Errorf("--category-id is required")
		}

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		p, err := store.NewProductStore(db).Create(cmd.Context(), *categoryID, brand, name)
		if err != nil {
			return err
		}
		notify(cmd.Context(), cfg, db, cache.Product, p.ID, "create")
		return printProduct(cmd.OutOrStdout(), p, asJSON)
	},
}

var productListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products with their category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		categoryID, err := optionalID(cmd, "category-id", "category")
		if err != nil {
			return err
		}
		query, _ := cmd.Flags().GetString("query")
		withDeleted, _ := cmd.Flags().GetBool("include-deleted")

		_, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		var inScope map[uuid.UUID]bool
		if categoryID != nil {
			categories, err := store.NewCategoryStore(db).List(cmd.Context(), withDeleted)
			if err != nil {
				return err
			}
			ids := tree.Build(categories).Descendants(*categoryID)
			if ids == nil {
				return fmt.Errorf("category %s not found", *categoryID)
			}
			inScope = make(map[uuid.UUID]bool, len(ids))
			for _, id := range ids {
				inScope[id] = true
			}
		}

		all, err := store.NewProductStore(db).List(cmd.Context(), withDeleted)
		if err != nil {
			return err
		}
		items := make([]models.ProductWithCategory, 0, len(all))
		for _, p := range all {
			if inScope != nil && !inScope[p.CategoryID] {
				continue
			}
			if !p.Matches(query) {
				continue
			}
			items = append(items, p)
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), items)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tBRAND\tNAME\tCATEGORY\tDELETED")
		for _, p := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Brand, p.Name, p.CategoryName, when(p.DeletedAt))
		}
		return tw.Flush()
	},
}

var productShowCmd = &cobra.Command{
	Use:   "show <product-id>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		id, err := parseID("product", args[0])
		if err != nil {
			return err
		}

		_, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		p, err := store.NewProductStore(db).FindByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printProduct(cmd.OutOrStdout(), p, asJSON)
	},
}

var productUpdateCmd = &cobra.Command{
	Use:   "update <product-id>",
	Short: "Change a product's brand, name or category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		id, err := parseID("product", args[0])
		if err != nil {
			return err
		}
		categoryID, err := optionalID(cmd, "category-id", "category")
		if err != nil {
			return err
		}
		var brand, name string
		if cmd.Flags().Changed("brand") {
			raw, _ := cmd.Flags().GetString("brand")
			if brand, err = models.CleanName("brand", raw, models.MaxBrandLen); err != nil {
				return err
			}
		}
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

		products := store.NewProductStore(db)
		existing, err := products.FindByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		if categoryID == nil {
			categoryID = &existing.CategoryID
		}
		if brand == "" {
			brand = existing.Brand
		}
		if name == "" {
			name = existing.Name
		}

		p, changed, err := products.Update(cmd.Context(), id, *categoryID, brand, name)
		if err != nil {
			return err
		}
		if changed {
			notify(cmd.Context(), cfg, db, cache.Product, id, "update")
		}
		return printProduct(cmd.OutOrStdout(), p, asJSON)
	},
}

var productDeleteCmd = &cobra.Command{
	Use:   "delete <product-id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("product", args[0])
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.NewProductStore(db).Delete(cmd.Context(), id, force); err != nil {
			return err
		}
		notify(cmd.Context(), cfg, db, cache.Product, id, "delete")
		fmt.Fprintf(cmd.OutOrStdout(), "deleted product %s\n", id)
		return nil
	},
}

func printProduct(w io.Writer, p *models.Product, asJSON bool) error {
	if asJSON {
		return printJSON(w, p)
	}
	_, err := fmt.Fprintf(w, "product %s: %s %s (category %s)\n", p.ID, p.Brand, p.Name, p.CategoryID)
	return err
}
