package main

import (
	"bufio"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/corvidlabs/brochure/lib/auth"
	"github.com/corvidlabs/brochure/lib/content"
)

var ErrNoPassword = errors.New("a password is required, pass --password or pipe one on stdin")

func openDB(cmd *cobra.Command, path string) (*content.DB, error) {
	db, err := content.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(cmd.Context()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newUserCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage admin panel users",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "./var/brochure.db", "path to the content database")

	var (
		name     string
		password string
	)

	add := &cobra.Command{
		Use:   "add EMAIL",
		Short: "Create an admin user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := mail.ParseAddress(args[0])
			if err != nil {
				return fmt.Errorf("%q is not an email address: %w", args[0], err)
			}

			if password == "" {
				sc := bufio.NewScanner(cmd.InOrStdin())
				if sc.Scan() {
					password = strings.TrimSpace(sc.Text())
				}
			}
			if password == "" {
				return ErrNoPassword
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			db, err := openDB(cmd, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			u := &content.User{
				Email:        strings.ToLower(addr.Address),
				Name:         name,
				PasswordHash: hash,
				Active:       true,
			}
			if err := db.Users.Create(cmd.Context(), u); err != nil {
				return fmt.Errorf("can't create user %s: %w", u.Email, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", u.Email, u.ID)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&password, "password", "", "password, read from stdin when empty")

	list := &cobra.Command{
		Use:   "list",
		Short: "List admin users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			users, err := db.Users.List(cmd.Context(), content.ListOptions{})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tACTIVE")
			for _, u := range users {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", u.ID, u.Email, u.Name, u.Active)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}
