package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"lsys/identity"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readSecret reads one line from the terminal without echo.
var readSecret = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }

// readPassword returns the password exactly as typed; the web login does not
// trim either.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	b, err := readSecret()
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cli) addWorkerCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "add-worker",
		Short: "Create a worker account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, email = strings.TrimSpace(name), strings.TrimSpace(email)
			if name == "" || email == "" {
				return errors.New("--name and --email are required")
			}
			pw, err := readPassword(cmd, fmt.Sprintf("Password for %s: ", email))
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if pw == "" {
				return errors.New("password cannot be empty")
			}
			hash, err := identity.Hasher{}.Hash(pw)
			if err != nil {
				return err
			}

			repo, done, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if _, err := repo.FindAccountByEmail(cmd.Context(), email); err == nil {
				return identity.ErrEmailTaken
			} else if !errors.Is(err, identity.ErrNotFound) {
				return err
			}
			uid, err := repo.CreateAccount(cmd.Context(), identity.Account{
				Name: name, Email: email, PassHash: hash, IsWorker: true,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added worker %q with ID %d\n", email, uid)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	return cmd
}

func (c *cli) promoteCmd() *cobra.Command {
	var demote bool
	cmd := &cobra.Command{
		Use:   "promote UID",
		Short: "Grant (or with --demote, revoke) worker rights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid uid %q", args[0])
			}
			repo, done, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			if err := repo.SetWorker(cmd.Context(), uid, !demote); err != nil {
				return fmt.Errorf("account %d: %w", uid, err)
			}
			c.log.Info().Int64("uid", uid).Bool("worker", !demote).Msg("updated")
			return nil
		},
	}
	cmd.Flags().BoolVar(&demote, "demote", false, "revoke worker rights instead")
	return cmd
}
