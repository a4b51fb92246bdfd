// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pocketratings/internal/cache"
	"pocketratings/internal/models"
	"pocketratings/internal/store"
)

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.AddCommand(reviewCreateCmd, reviewListCmd, reviewShowCmd, reviewUpdateCmd, reviewDeleteCmd)
	addOutputFlag(reviewCreateCmd, reviewListCmd, reviewShowCmd, reviewUpdateCmd)

	addUserFlags(reviewCreateCmd)
	reviewCreateCmd.Flags().String("product-id", "", "Reviewed product (required)")
	reviewCreateCmd.Flags().Float64("rating", 0, "Rating from 1.0 to 5.0 in steps of 0.1 (required)")
	reviewCreateCmd.Flags().String("text", "", "Optional review text")
	reviewCreateCmd.MarkFlagRequired("product-id")
	reviewCreateCmd.MarkFlagRequired("rating")

	reviewListCmd.Flags().String("product-id", "", "Only reviews of this product")
	reviewListCmd.Flags().String("user-id", "", "Only reviews by this user")
	reviewListCmd.Flags().Bool("include-deleted", false, "Include soft-deleted reviews")

	reviewUpdateCmd.Flags().Float64("rating", 0, "New rating")
	reviewUpdateCmd.Flags().String("text", "", "New text; an empty value clears it")

	reviewDeleteCmd.Flags().Bool("force", false, "Remove the row instead of soft-deleting it")
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Manage product reviews",
}

var reviewCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a review on behalf of a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		who, err := userFlags(cmd)
		if err != nil {
			return err
		}
		productID, err := optionalID(cmd, "product-id", "product")
		if err != nil {
			return err
		}
		if productID == nil {
			return fmt.Errorf("--product-id is required")
		}
		rating, _ := cmd.Flags().GetFloat64("rating")
		if err := models.CheckRating(rating); err != nil {
			return err
		}
		text, err := textFlag(cmd)
		if err != nil {
			return err
		}

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		userID, err := who.resolve(cmd.Context(), store.NewUserStore(db))
		if err != nil {
			return err
		}
		rv, err := store.NewReviewStore(db).Create(cmd.Context(), userID, *productID, rating, text)
		if err != nil {
			return err
		}
		notify(cmd.Context(), cfg, db, cache.Review, rv.ID, "create")
		return printReview(cmd.OutOrStdout(), rv, asJSON)
	},
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reviews with product and author",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		productID, err := optionalID(cmd, "product-id", "product")
		if err != nil {
			return err
		}
		userID, err := optionalID(cmd, "user-id", "user")
		if err != nil {
			return err
		}
		withDeleted, _ := cmd.Flags().GetBool("include-deleted")

		_, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		all, err := store.NewReviewStore(db).List(cmd.Context(), withDeleted)
		if err != nil {
			return err
		}
		items := make([]models.ReviewWithRelations, 0, len(all))
		for _, rv := range all {
			if productID != nil && rv.ProductID != *productID {
				continue
			}
			if userID != nil && rv.UserID != *userID {
				continue
			}
			items = append(items, rv)
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), items)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPRODUCT\tUSER\tRATING\tDELETED")
		for _, rv := range items {
			fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\n", rv.ID, rv.ProductBrand, rv.ProductName, rv.UserName,
				strconv.FormatFloat(rv.Rating, 'f', 1, 64), when(rv.DeletedAt))
		}
		return tw.Flush()
	},
}

var reviewShowCmd = &cobra.Command{
	Use:   "show <review-id>",
	Short: "Show one review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		id, err := parseID("review", args[0])
		if err != nil {
			return err
		}

		_, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		rv, err := store.NewReviewStore(db).FindByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printReview(cmd.OutOrStdout(), rv, asJSON)
	},
}

var reviewUpdateCmd = &cobra.Command{
	Use:   "update <review-id>",
	Short: "Change a review's rating or text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		id, err := parseID("review", args[0])
		if err != nil {
			return err
		}
		setRating := cmd.Flags().Changed("rating")
		rating, _ := cmd.Flags().GetFloat64("rating")
		if setRating {
			if err := models.CheckRating(rating); err != nil {
				return err
			}
		}
		setText := cmd.Flags().Changed("text")
		text, err := textFlag(cmd)
		if err != nil {
			return err
		}

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		reviews := store.NewReviewStore(db)
		existing, err := reviews.FindByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !setRating {
			rating = existing.Rating
		}
		if !setText {
			text = existing.Text
		}

		rv, changed, err := reviews.Update(cmd.Context(), id, rating, text)
		if err != nil {
			return err
		}
		if changed {
			notify(cmd.Context(), cfg, db, cache.Review, id, "update")
		}
		return printReview(cmd.OutOrStdout(), rv, asJSON)
	},
}

var reviewDeleteCmd = &cobra.Command{
	Use:   "delete <review-id>",
	Short: "Delete a review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("review", args[0])
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.NewReviewStore(db).Delete(cmd.Context(), id, force); err != nil {
			return err
		}
		notify(cmd.Context(), cfg, db, cache.Review, id, "delete")
		fmt.Fprintf(cmd.OutOrStdout(), "deleted review %s\n", id)
		return nil
	},
}

// textFlag reads --text; blank text is stored as no text.
func textFlag(cmd *cobra.Command) (*string, error) {
	if !cmd.Flags().Changed("text") {
		return nil, nil
	}
	raw, _ := cmd.Flags().GetString("text")
	return models.CleanText(&raw)
}

func printReview(w io.Writer, rv *models.Review, asJSON bool) error {
	if asJSON {
		return printJSON(w, rv)
	}
	_, err := fmt.Fprintf(w, "review %s: product %s rated %.1f by %s\n", rv.ID, rv.ProductID, rv.Rating, rv.UserID)
	return err
}
