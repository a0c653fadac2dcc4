package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minh-le0205/tour-rest-api/cmd/api/ui"
	"github.com/minh-le0205/tour-rest-api/internal/user"
)

func runCreateUser(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	role, _ := cmd.Flags().GetString("role")

	acc := ui.Account{Name: name, Email: email, Password: password, PasswordConfirm: password, Role: role}

	// Interactive mode unless every field came from flags
	if name == "" || email == "" || password == "" {
		fmt.Println()
		fmt.Println("  Natours account setup")
		fmt.Println()

		var err error
		acc, err = ui.RunAccountForm(ui.Account{Name: name, Email: email, Role: role})
		if err != nil {
			return fmt.Errorf("form cancelled: %w", err)
		}
		ui.PrintSummary(acc)
	}

	parsedRole, err := user.ParseRole(acc.Role)
	if err != nil {
		ui.PrintError(err.Error())
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	mailer, err := newMailer(a.cfg.Email, a.cfg.Auth.ResetTokenTTL, a.logger)
	if err != nil {
		return err
	}
	service, _, err := a.authService(user.NewRepository(a.db), mailer)
	if err != nil {
		return err
	}

	created, err := service.CreateAccount(ctx, user.NewAccount{
		Name:            acc.Name,
		Email:           acc.Email,
		Password:        acc.Password,
		PasswordConfirm: acc.PasswordConfirm,
		Role:            parsedRole,
	})
	if err != nil {
		ui.PrintError(err.Error())
		return err
	}

	ui.PrintSuccess(created.ID.String(), created.Email)
	return nil
}
