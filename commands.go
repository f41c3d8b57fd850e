package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"community-admin/apiv1"
	"community-admin/internal"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage operator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an operator account",
	Long: `Create an operator account that can sign in to the admin API
with HTTP basic auth when auth.enabled is set.`,
	RunE: runAdminCreate,
}

var adminFlags struct {
	username string
	email    string
	password string
	fullName string
}

func init() {
	flags := adminCreateCmd.Flags()
	flags.StringVar(&adminFlags.username, "username", "", "login name, at least 3 characters")
	flags.StringVar(&adminFlags.email, "email", "", "email address")
	flags.StringVar(&adminFlags.password, "password", "", "initial password")
	flags.StringVar(&adminFlags.fullName, "full-name", "", "display name")
	_ = adminCreateCmd.MarkFlagRequired("username")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer internal.CloseDatabase(db)

	if err := internal.Migrate(db); err != nil {
		return err
	}

	log.Info("Database migrations completed successfully")
	return nil
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	_, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer internal.CloseDatabase(db)

	if err := internal.Migrate(db); err != nil {
		return err
	}

	admin := &apiv1.Admin{
		Username: adminFlags.username,
		Email:    adminFlags.email,
		Password: adminFlags.password,
		FullName: adminFlags.fullName,
	}
	if err := internal.NewDAO[apiv1.Admin](db).Create(cmd.Context(), admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	log.Info("Admin created", "username", admin.Username, "id", admin.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", admin.Username, admin.ID)
	return nil
}
