/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/hope-foundation/apiserver/config"
	"github.com/hope-foundation/apiserver/internal/db"
	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/internal/services"
	"github.com/hope-foundation/apiserver/internal/store"
	"github.com/hope-foundation/apiserver/types"
	"github.com/spf13/cobra"
)

var adminUsername string

// adminCmd manages admin grants from the shell.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage site administrators",
}

var adminSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Make a registered user the first admin",
	Long: `Grants admin to the given user, but only while no admin exists yet.

	hope admin setup --username alice
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserService(cmd, func(users *services.UserService) (types.User, error) {
			return users.BootstrapAdmin(cmd.Context(), adminUsername)
		})
	},
}

var adminGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Grant admin to a registered user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserService(cmd, func(users *services.UserService) (types.User, error) {
			return users.GrantByUsername(cmd.Context(), adminUsername)
		})
	},
}

func withUserService(cmd *cobra.Command, fn func(*services.UserService) (types.User, error)) error {
	cfg := config.LoadConfig()
	log := logging.New(cfg.Env, cfg.LogLevel)

	conn, err := db.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()

	users := services.NewUserService(store.NewUserRepository(conn), store.NewAdminRepository(conn), log, cfg.SetupToken)
	user, err := fn(users)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "granted admin to %s (id %d)\n", user.Username, user.ID)
	return nil
}

func init() {
	rootCmd.AddCommand(adminCmd)
	for _, c := range []*cobra.Command{adminSetupCmd, adminGrantCmd} {
		c.Flags().StringVar(&adminUsername, "username", "", "username of a registered user")
		_ = c.MarkFlagRequired("username")
		adminCmd.AddCommand(c)
	}
}
