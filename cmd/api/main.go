package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/minh-le0205/tour-rest-api/docs" // Swagger docs (generated)
)

// @title           Natours Tour API
// @version         1.0
// @description     Tour booking REST API with accounts, role-based access, tours and reviews.

// @contact.name   API Support
// @contact.email  support@natours.dev

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	rootCmd := &cobra.Command{
		Use:          "api",
		Short:        "Natours tour REST API",
		Long:         "Runs the tour API server and its maintenance tasks: migrations and account provisioning.",
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE:  runMigrate(migrateUp),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE:  runMigrate(migrateDown),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print migration status",
			RunE:  runMigrate(migrateStatus),
		},
	)

	createUserCmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account with an explicit role",
		RunE:  runCreateUser,
	}

	// Flags for non-interactive mode (CI/scripting)
	createUserCmd.Flags().String("name", "", "Display name")
	createUserCmd.Flags().String("email", "", "Email address")
	createUserCmd.Flags().String("password", "", "Password (at least 8 characters)")
	createUserCmd.Flags().String("role", "admin", "Role (user, guide, lead-guide, admin)")

	rootCmd.AddCommand(serveCmd, migrateCmd, createUserCmd)

	// Allow running without subcommand (default to serve)
	rootCmd.RunE = serveCmd.RunE

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
