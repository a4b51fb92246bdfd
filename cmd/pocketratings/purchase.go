// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pocketratings/internal/cache"
	"pocketratings/internal/models"
	"pocketratings/internal/store"
)

func init() {
	rootCmd.AddCommand(purchaseCmd)
	purchaseCmd.AddCommand(purchaseCreateCmd, purchaseListCmd, purchaseShowCmd, purchaseUpdateCmd, purchaseDeleteCmd)
	addOutputFlag(purchaseCreateCmd, purchaseListCmd, purchaseShowCmd, purchaseUpdateCmd)

	addUserFlags(purchaseCreateCmd)
	purchaseCreateCmd.Flags().String("product-id", "", "Purchased product (required)")
	purchaseCreateCmd.Flags().String("location-id", "", "Where it was bought (required)")
	purchaseCreateCmd.Flags().String("price", "", "Unit price, e.g. 2.49 (required)")
	purchaseCreateCmd.Flags().Int("quantity", 1, "Number of units")
	purchaseCreateCmd.Flags().String("at", "now", "Purchase time: now, YYYY-MM-DD or RFC 3339")
	purchaseCreateCmd.MarkFlagRequired("product-id")
	purchaseCreateCmd.MarkFlagRequired("location-id")
	purchaseCreateCmd.MarkFlagRequired("price")

	purchaseListCmd.Flags().String("user-id", "", "Only purchases by this user")
	purchaseListCmd.Flags().String("product-id", "", "Only purchases of this product")
	purchaseListCmd.Flags().String("location-id", "", "Only purchases at this location")
	purchaseListCmd.Flags().String("from", "", "Earliest purchase time, inclusive")
	purchaseListCmd.Flags().String("to", "", "Latest purchase time, inclusive")
	purchaseListCmd.Flags().Bool("include-deleted", false, "Include soft-deleted purchases")

	purchaseUpdateCmd.Flags().String("product-id", "", "New product")
	purchaseUpdateCmd.Flags().String("location-id", "", "New location")
	purchaseUpdateCmd.Flags().String("price", "", "New unit price")
	purchaseUpdateCmd.Flags().Int("quantity", 1, "New quantity")
	purchaseUpdateCmd.Flags().String("at", "", "New purchase time")

	purchaseDeleteCmd.Flags().Bool("force", false, "Remove the row instead of soft-deleting it")
}

var purchaseCmd = &cobra.Command{
	Use:   "purchase",
	Short: "Manage purchases",
}

var purchaseCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a purchase on behalf of a user",
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
		in, err := purchaseFlags(cmd, store.PurchaseInput{Quantity: 1, PurchasedAt: time.Now().UTC()})
		if err != nil {
			return err
		}
		if in.ProductID == uuid.Nil || in.LocationID == uuid.Nil || in.Price == "" {
			return fmt.Errorf("--product-id, --location-id and --price are required")
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
		p, err := store.NewPurchaseStore(db).Create(cmd.Context(), userID, in)
		if err != nil {
			return err
		}
		notify(cmd.Context(), cfg, db, cache.Purchase, p.ID, "create")
		return printPurchase(cmd.OutOrStdout(), p, asJSON)
	},
}

var purchaseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List purchases, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		var ids [3]*uuid.UUID
		for i, f := range []struct{ flag, what string }{
			{"user-id", "user"}, {"product-id", "product"}, {"location-id", "location"},
		} {
			if ids[i], err = optionalID(cmd, f.flag, f.what); err != nil {
				return err
			}
		}
		from, err := boundFlag(cmd, "from", false)
		if err != nil {
			return err
		}
		to, err := boundFlag(cmd, "to", true)
		if err != nil {
			return err
		}
		if from != nil && to != nil && !from.Before(*to) {
			return fmt.Errorf("--from must not be after --to")
		}
		withDeleted, _ := cmd.Flags().GetBool("include-deleted")

		_, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		all, err := store.NewPurchaseStore(db).List(cmd.Context(), withDeleted)
		if err != nil {
			return err
		}
		items := make([]models.PurchaseWithRelations, 0, len(all))
		for _, p := range all {
			switch {
			case ids[0] != nil && p.UserID != *ids[0],
				ids[1] != nil && p.ProductID != *ids[1],
				ids[2] != nil && p.LocationID != *ids[2],
				from != nil && p.PurchasedAt.Before(*from),
				to != nil && !p.PurchasedAt.Before(*to):
				continue
			}
			items = append(items, p)
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), items)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tUSER\tPRODUCT\tLOCATION\tQTY\tPRICE\tDELETED")
		for _, p := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\t%d\t%s\t%s\n", p.ID, p.PurchasedAt.Format(time.DateOnly),
				p.UserName, p.ProductBrand, p.ProductName, p.LocationName, p.Quantity, p.Price, when(p.DeletedAt))
		}
		return tw.Flush()
	},
}

var purchaseShowCmd = &cobra.Command{
	Use:   "show <purchase-id>",
	Short: "Show one purchase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		id, err := parseID("purchase", args[0])
		if err != nil {
			return err
		}

		_, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		p, err := store.NewPurchaseStore(db).FindByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printPurchase(cmd.OutOrStdout(), p, asJSON)
	},
}

var purchaseUpdateCmd = &cobra.Command{
	Use:   "update <purchase-id>",
	Short: "Correct a recorded purchase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := wantJSON(cmd)
		if err != nil {
			return err
		}
		id, err := parseID("purchase", args[0])
		if err != nil {
			return err
		}
		// Validate the flags up front; the stored row fills the gaps later.
		if _, err := purchaseFlags(cmd, store.PurchaseInput{}); err != nil {
			return err
		}

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		purchases := store.NewPurchaseStore(db)
		existing, err := purchases.FindByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		in, err := purchaseFlags(cmd, store.PurchaseInput{
			ProductID:   existing.ProductID,
			LocationID:  existing.LocationID,
			Quantity:    existing.Quantity,
			Price:       existing.Price,
			PurchasedAt: existing.PurchasedAt,
		})
		if err != nil {
			return err
		}

		p, changed, err := purchases.Update(cmd.Context(), id, in)
		if err != nil {
			return err
		}
		if changed {
			notify(cmd.Context(), cfg, db, cache.Purchase, id, "update")
		}
		return printPurchase(cmd.OutOrStdout(), p, asJSON)
	},
}

var purchaseDeleteCmd = &cobra.Command{
	Use:   "delete <purchase-id>",
	Short: "Delete a purchase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("purchase", args[0])
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.NewPurchaseStore(db).Delete(cmd.Context(), id, force); err != nil {
			return err
		}
		notify(cmd.Context(), cfg, db, cache.Purchase, id, "delete")
		fmt.Fprintf(cmd.OutOrStdout(), "deleted purchase %s\n", id)
		return nil
	},
}

// purchaseFlags overlays the flags the user set on base.
func purchaseFlags(cmd *cobra.Command, base store.PurchaseInput) (store.PurchaseInput, error) {
	in := base
	flags := cmd.Flags()
	if flags.Changed("product-id") {
		id, err := optionalID(cmd, "product-id", "product")
		if err != nil {
			return in, err
		}
		if id != nil {
			in.ProductID = *id
		}
	}
	if flags.Changed("location-id") {
		id, err := optionalID(cmd, "location-id", "location")
		if err != nil {
			return in, err
		}
		if id != nil {
			in.LocationID = *id
		}
	}
	if flags.Changed("price") {
		raw, _ := flags.GetString("price")
		price, err := models.ParsePrice(raw)
		if err != nil {
			return in, err
		}
		in.Price = price
	}
	if flags.Changed("quantity") {
		q, _ := flags.GetInt("quantity")
		if err := models.CheckQuantity(q); err != nil {
			return in, err
		}
		in.Quantity = q
	}
	if flags.Changed("at") {
		raw, _ := flags.GetString("at")
		at, err := parseAt(raw)
		if err != nil {
			return in, err
		}
		in.PurchasedAt = at
	}
	return in, nil
}

// parseAt accepts "now", a bare date (midnight UTC) or an RFC 3339 time.
func parseAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "now") {
		return time.Now().UTC(), nil
	}
	t, _, err := models.ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at value %q", s)
	}
	return t.UTC(), nil
}

func boundFlag(cmd *cobra.Command, flag string, upper bool) (*time.Time, error) {
	raw, _ := cmd.Flags().GetString(flag)
	if raw == "" {
		return nil, nil
	}
	t, err := models.RangeBound(raw, upper)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s value %q", flag, raw)
	}
	return &t, nil
}

func printPurchase(w io.Writer, p *models.Purchase, asJSON bool) error {
	if asJSON {
		return printJSON(w, p)
	}
	_, err := fmt.Fprintf(w, "purchase %s: %d x %s of product %s at location %s on %s\n",
		p.ID, p.Quantity, p.Price, p.ProductID, p.LocationID, p.PurchasedAt.Format(time.DateOnly))
	return err
}
