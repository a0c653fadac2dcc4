package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/minh-le0205/tour-rest-api/internal/user"
)

// Account is what the create-user prompt collects.
type Account struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
	Role            string
}

// RunAccountForm prompts for the fields of a new account. Values already
// present in defaults are shown prefilled.
func RunAccountForm(defaults Account) (Account, error) {
	acc := defaults
	if acc.Role == "" {
		acc.Role = user.RoleAdmin.String()
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Jonas Schmedtmann").
				Value(&acc.Name),

			huh.NewInput().
				Title("Email").
				Placeholder("admin@natours.dev").
				Value(&acc.Email).
				Validate(func(s string) error {
					_, err := user.ValidateEmail(s)
					return err
				}),

			huh.NewSelect[string]().
				Title("Role").
				Options(roleOptions()...).
				Value(&acc.Role),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				Description("At least 8 characters").
				EchoMode(huh.EchoModePassword).
				Value(&acc.Password).
				Validate(func(s string) error {
					if len(s) < 8 {
						return fmt.Errorf("password must be at least 8 characters")
					}
					return nil
				}),

			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&acc.PasswordConfirm),
		),
	).WithTheme(huh.ThemeCatppuccin())

	if err := form.Run(); err != nil {
		return Account{}, err
	}

	acc.Name = strings.TrimSpace(acc.Name)
	acc.Email = strings.TrimSpace(acc.Email)
	return acc, nil
}

func roleOptions() []huh.Option[string] {
	roles := user.Roles()
	opts := make([]huh.Option[string], 0, len(roles))
	for i := len(roles) - 1; i >= 0; i-- {
		opts = append(opts, huh.NewOption(roles[i].String(), roles[i].String()))
	}
	return opts
}

// PrintSummary prints the account about to be created.
func PrintSummary(acc Account) {
	fmt.Println(titleStyle.Render("New account"))
	fmt.Printf("  Name:  %s\n", acc.Name)
	fmt.Printf("  Email: %s\n", acc.Email)
	fmt.Printf("  Role:  %s\n", acc.Role)
	fmt.Println()
}

// PrintSuccess prints the created account id.
func PrintSuccess(id, email string) {
	fmt.Println(successStyle.Render("Account created"))
	fmt.Println(subtleStyle.Render(fmt.Sprintf("  %s <%s>", id, email)))
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Println(errorStyle.Render("Error: " + msg))
}
