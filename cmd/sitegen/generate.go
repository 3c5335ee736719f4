package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sitegen/internal/gateway/app"
	"sitegen/internal/types"
	"sitegen/internal/util/jsonutil"
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var req types.GenerationRequest
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one generation and print the response as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(opts.cfg, opts.log)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			defer a.Close()

			resp, err := a.Generation().Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			out, err := jsonutil.MarshalNoEscape(resp)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if !resp.Success {
				return errors.New(resp.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Prompt, "prompt", "p", "", "Website description (at least 10 characters)")
	cmd.Flags().StringVarP(&req.Style, "style", "s", "", "Design style: minimal, modern, corporate or creative")
	cmd.Flags().StringVar(&req.ProjectID, "project", "", "Record the pages as a new version of this project")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}
