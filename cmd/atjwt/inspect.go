package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ggoodman/accesstoken-go/accesstoken"
)

func newInspectCmd(loadPolicy func() (*accesstoken.Policy, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token|->",
		Short: "Print the verified header and payload as JSON",
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
			header, payload := tok.Header(), tok.Payload()
			if header == nil {
				return fmt.Errorf("%w: %s", errRejected, tok.InvalidReason().Message())
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"header": header, "payload": payload})
		},
	}
}
