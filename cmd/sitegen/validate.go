package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sitegen/internal/codecheck"
	"sitegen/internal/types"
	"sitegen/internal/util/jsonutil"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Run the generated-code checks over component files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := codecheck.New()
			invalid := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				res := v.Validate(types.CodeArtifact(data))
				out, err := jsonutil.MarshalNoEscape(struct {
					File string `json:"file"`
					types.ValidationResult
				}{path, res})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				if !res.Valid {
					invalid++
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d files failed validation", invalid, len(args))
			}
			return nil
		},
	}
}
