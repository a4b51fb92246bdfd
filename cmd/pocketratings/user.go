// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pocketratings/internal/auth"
	"pocketratings/internal/cache"
	"pocketratings/internal/models"
	"pocketratings/internal/store"
)

// minPasswordLen applies to accounts created from the command line.
const minPasswordLen = 8

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userRegisterCmd, userListCmd, userDeleteCmd)

	userRegisterCmd.Flags().String("name", "", "Display name (required)")
	userRegisterCmd.Flags().String("email", "", "Login email (required)")
	userRegisterCmd.Flags().String("password", "", "Password; read from stdin when omitted")
	userRegisterCmd.MarkFlagRequired("name")
	userRegisterCmd.MarkFlagRequired("email")

	userListCmd.Flags().Bool("with-deleted", false, "Include soft-deleted accounts")

	userDeleteCmd.Flags().Bool("force", false, "Remove the row instead of soft-deleting it")
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a user account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		name = strings.TrimSpace(name)
		if name == "" {
			return errors.New("name must not be blank")
		}
		email, err := normalizeEmail(email)
		if err != nil {
			return err
		}
		if password == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			if password, err = readLine(cmd.InOrStdin()); err != nil {
				return err
			}
		}
		if len(password) < minPasswordLen {
			return fmt.Errorf("password must be at least %d characters", minPasswordLen)
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

		hash, err := auth.NewHasher(cfg.BcryptCost).Hash(password)
		if err != nil {
			return err
		}
		u, err := store.NewUserStore(db).Create(cmd.Context(), name, email, hash)
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("a user with email %s already exists", email)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", u.ID, u.Email)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		withDeleted, _ := cmd.Flags().GetBool("with-deleted")

		cfg, err := setup()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		users, err := store.NewUserStore(db).List(cmd.Context(), withDeleted)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCREATED\tDELETED")
		for _, u := range users {
			deleted := "-"
			if u.DeletedAt != nil {
				deleted = u.DeletedAt.Format(time.DateOnly)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.CreatedAt.Format(time.DateOnly), deleted)
		}
		return tw.Flush()
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a user account",
	Long: `Soft-deletes a user that has no active reviews or purchases.
With --force the row is removed; this still fails while reviews or
purchases reference it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("user", args[0])
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.NewUserStore(db).Delete(cmd.Context(), id, force); err != nil {
			return err
		}
		// Running servers hold snapshots that embed user names.
		notify(cmd.Context(), cfg, db, cache.User, id, "delete")

		fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s\n", id)
		return nil
	},
}

// normalizeEmail checks the address shape and lowercases it.
func normalizeEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", fmt.Errorf("invalid email %q", s)
	}
	return strings.ToLower(s), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// userRef names the acting user of a review or purchase, by id or email.
type userRef struct {
	id    *uuid.UUID
	email string
}

func addUserFlags(cmd *cobra.Command) {
	cmd.Flags().String("user-id", "", "Acting user id")
	cmd.Flags().String("email", "", "Acting user email")
}

// userFlags checks that exactly one of --user-id and --email is set.
func userFlags(cmd *cobra.Command) (userRef, error) {
	rawID, _ := cmd.Flags().GetString("user-id")
	rawEmail, _ := cmd.Flags().GetString("email")
	switch {
	case rawID == "" && rawEmail == "":
		return userRef{}, errors.New("either --user-id or --email is required")
	case rawID != "" && rawEmail != "":
		return userRef{}, errors.New("provide only one of --user-id or --email")
	case rawEmail != "":
		email, err := normalizeEmail(rawEmail)
		if err != nil {
			return userRef{}, err
		}
		return userRef{email: email}, nil
	}
	id, err := parseID("user", rawID)
	if err != nil {
		return userRef{}, err
	}
	return userRef{id: &id}, nil
}

// resolve looks the user up and rejects unknown or deleted accounts.
func (u userRef) resolve(ctx context.Context, users *store.UserStore) (uuid.UUID, error) {
	var (
		found *models.User
		err   error
	)
	if u.id != nil {
		found, err = users.FindByID(ctx, *u.id)
	} else {
		found, err = users.FindByEmail(ctx, u.email)
	}
	if err != nil {
		return uuid.Nil, err
	}
	if found == nil || !found.IsActive() {
		return uuid.Nil, errors.New("user not found")
	}
	return found.ID, nil
}
