package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cli/config"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cli/output"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in and store a session token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := ""
		if len(args) == 1 {
			email = args[0]
		} else {
			v, err := promptString("Email: ")
			if err != nil {
				return err
			}
			email = v
		}
		password := loginPassword
		if password == "" {
			v, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			password = v
		}

		resp, err := client.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		creds = &config.Credentials{
			Token:     resp.Token,
			ExpiresAt: resp.ExpiresAt,
			UserID:    resp.User.ID,
			Email:     resp.User.Email,
			Role:      resp.User.Role,
			DonorID:   resp.User.DonorID,
			CharityID: resp.User.CharityID,
		}
		if err := config.SaveCredentials(creds); err != nil {
			return fmt.Errorf("saving credentials: %w", err)
		}
		output.Success("Logged in as %s (%s)", resp.User.Email, resp.User.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.DeleteCredentials(); err != nil {
			return err
		}
		output.Success("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		user, err := client.Me(cmd.Context())
		if err != nil {
			return err
		}
		if output.IsJSON() {
			return output.JSON(user)
		}
		pairs := [][2]string{{"Email", user.Email}, {"Name", user.Name}, {"Role", user.Role}}
		if user.CharityID != "" {
			pairs = append(pairs, [2]string{"Charity", user.CharityID})
		}
		if user.DonorID != "" {
			pairs = append(pairs, [2]string{"Donor", user.DonorID}, [2]string{"Donor role", user.DonorRole})
		}
		output.KeyValues(pairs)
		return nil
	},
}

func promptString(label string) (string, error) {
	fmt.Print(label)
	input, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func init() {
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prompted when omitted)")
}
