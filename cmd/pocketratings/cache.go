// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pocketratings/internal/store"
)

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheLogCmd)

	cacheLogCmd.Flags().IntP("limit", "n", 20, "Number of entries to show")
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the list cache",
}

var cacheLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent list cache invalidations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			return fmt.Errorf("limit must be positive, got %d", limit)
		}

		cfg, err := setup()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := store.NewCacheLogStore(db).RecentEntries(cmd.Context(), limit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tENTITY\tID\tACTION\tKEYS")
		for _, e := range entries {
			keys := make([]string, len(e.Keys))
			for i, k := range e.Keys {
				keys[i] = string(k)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				e.InvalidatedAt.Local().Format(time.DateTime), e.EntityType, e.EntityID, e.Action, strings.Join(keys, ","))
		}
		return tw.Flush()
	},
}
