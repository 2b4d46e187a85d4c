package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login [token]",
	Short: "Sign in to the server",
	Long:  "Sign in with a session token. Without an argument, prints the OAuth URL to visit and reads the issued token from stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient(cmd)

		var token string
		if len(args) == 1 {
			token = args[0]
		} else {
			provider, _ := cmd.Flags().GetString("provider")
			fmt.Printf("Open %s in a browser and complete the sign-in.\n", c.AuthURL(provider))
			fmt.Print("Paste the issued token: ")

			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read token: %w", err)
			}
			token = strings.TrimSpace(line)
		}

		if token == "" {
			return fmt.Errorf("token must not be empty")
		}

		session, err := c.SetToken(cmd.Context(), token)
		if err != nil {
			return fmt.Errorf("sign-in failed: %w", err)
		}
		if err := saveToken(token); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}

		fmt.Printf("Signed in as %s\n", session.User.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and discard the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient(cmd)

		if err := c.SignOut(cmd.Context()); err != nil {
			return fmt.Errorf("sign-out failed: %w", err)
		}
		if err := clearToken(); err != nil {
			return fmt.Errorf("failed to discard token: %w", err)
		}

		fmt.Println("Signed out")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("provider", "google", "OAuth provider to sign in with")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
