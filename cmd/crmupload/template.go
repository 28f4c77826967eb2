package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yash-jain-1224/crm-dashboard/internal/client/progress"
)

func newTemplateCmd(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template <entity>",
		Short: "Download the Excel template for an entity type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity := args[0]
			if output == "" {
				output = entity + "_template.xlsx"
			}

			content, err := progress.NewClient(root.server, root.timeout).Template(cmd.Context(), entity)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default {entity}_template.xlsx)")
	return cmd
}
