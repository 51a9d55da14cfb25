package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cadence/api/internal/authpw"
	"cadence/api/internal/store"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var (
	userEmail    string
	userName     string
	userPassword string
)

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user that can sign in with email and password",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, logger, db, dialect, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer db.Close()

		if err := store.ApplyMigrations(cmd.Context(), db, dialect); err != nil {
			return err
		}
		repo := store.NewRepository(db, dialect, logger)
		id, err := authpw.NewService(repo).SignUp(cmd.Context(), authpw.SignUpRequest{
			Email:       userEmail,
			Password:    userPassword,
			DisplayName: userName,
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		logger.Info("user created", zap.String("user_id", id), zap.String("email", userEmail))
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "display name")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password (min 8 characters)")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userCreateCmd)
}
