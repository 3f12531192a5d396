package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ggoodman/accesstoken-go/accesstoken"
)

func newValidateCmd(loadPolicy func() (*accesstoken.Policy, error)) *cobra.Command {
	var scopes []string
	cmd := &cobra.Command{
		Use:   "validate <token|->",
		Short: "Check a token and report why it is rejected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := loadPolicy()
			if err != nil {
				return err
			}
			raw, err := readToken(cmd, args[0])
			if err != nil {
				return err
			}
			tok := policy.BuildAccessToken(raw)
			accessible := tok.IsAccessible()
			acceptable := tok.IsAcceptable(scopes)

			var reason accesstoken.Reason
			var message string
			switch {
			case !accessible:
				reason = tok.InvalidReason()
				message = reason.Message()
			case !acceptable:
				reason = tok.ForbiddenReason()
				message = accesstoken.ForbiddenMessage(scopes)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "accessible: %t\n", accessible)
			fmt.Fprintf(out, "acceptable: %t\n", acceptable)
			if reason != "" {
				fmt.Fprintf(out, "reason: %s\n", reason)
				fmt.Fprintf(out, "message: %s\n", message)
				return errRejected
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&scopes, "scope", "s", nil, "required scope, matched against the aud claim (repeatable)")
	return cmd
}
