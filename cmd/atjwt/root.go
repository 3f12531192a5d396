package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ggoodman/accesstoken-go/accesstoken"
	"github.com/ggoodman/accesstoken-go/auth"
)

var BuildVersion = "dev"

// errRejected makes the process exit non-zero after the report is printed.
var errRejected = errors.New("access token rejected")

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "atjwt",
		Short:         "Validate RFC 9068 JWT access tokens",
		Long:          "CLI for checking JWT access tokens against a validation policy read from a YAML file or ACCESS_TOKEN_* environment variables.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML policy file (defaults to the environment)")

	loadPolicy := func() (*accesstoken.Policy, error) {
		var (
			cfg auth.SecurityConfig
			err error
		)
		if configPath != "" {
			cfg, err = auth.LoadSecurityConfig(configPath)
		} else {
			cfg, err = auth.SecurityConfigFromEnv()
		}
		if err != nil {
			return nil, err
		}
		return cfg.Policy()
	}

	root.AddCommand(
		newValidateCmd(loadPolicy),
		newInspectCmd(loadPolicy),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of atjwt",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				cmd.Printf("%s\n", BuildVersion)
			},
		},
	)
	return root
}

// readToken returns arg, or standard input when arg is "-".
func readToken(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return strings.TrimSpace(arg), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
