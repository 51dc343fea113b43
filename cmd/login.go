package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/igraph100/DW-Spectrum/internal/auth"
	"github.com/igraph100/DW-Spectrum/internal/client"
	"github.com/igraph100/DW-Spectrum/internal/config"
)

// Variables to hold flag values
var (
	host      string
	port      int
	user      string
	pass      string
	useSSL    bool
	verifySSL bool
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Validate and save the DW Spectrum connection",
	Long: `Logs in with the provided credentials, checks that the server answers,
and saves the connection settings locally for future commands.

Example:
  spectrum-cli login --host 10.0.0.5 --port 7001 --username admin --password pass`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loginConfig()
		if err := config.Validate(cfg); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Authenticating against %s as user '%s'...\n", cfg.BaseURL(), user)

		if err := client.New(cfg).Validate(context.Background()); err != nil {
			switch {
			case client.IsAuthError(err):
				fmt.Println("Fatal: invalid credentials.")
			case client.IsConnectivityError(err):
				fmt.Printf("Fatal: cannot connect: %v\n", err)
			default:
				fmt.Printf("Fatal: login failed: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Println("Login successful. Saving configuration...")

		if err := config.SaveConnection(viper.GetViper(), cfg); err != nil {
			fmt.Printf("Failed to save configuration file: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Connection saved. You can now run commands like 'spectrum-cli cameras list'.")
	},
}

// loginConfig builds the connection from the flags. The client id is fixed
// here so the one validated against the server is the one saved.
func loginConfig() client.ClientConfig {
	return client.ClientConfig{
		Host:      strings.TrimSpace(host),
		Port:      port,
		SSL:       useSSL,
		VerifySSL: verifySSL,
		Username:  user,
		Password:  pass,
		ClientID:  auth.EnsureClientID(viper.GetString("client_id")),
	}
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVar(&host, "host", "", "Server host name or IP address")
	loginCmd.Flags().IntVar(&port, "port", config.DefaultPort, "Server port")
	loginCmd.Flags().StringVarP(&user, "username", "u", "admin", "Username")
	loginCmd.Flags().StringVarP(&pass, "password", "p", "", "Password")
	loginCmd.Flags().BoolVar(&useSSL, "ssl", true, "Use HTTPS")
	loginCmd.Flags().BoolVar(&verifySSL, "verify-ssl", false, "Verify the server certificate")

	_ = loginCmd.MarkFlagRequired("host")
	_ = loginCmd.MarkFlagRequired("password")
}
