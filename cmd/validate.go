package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/queue"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a catalog for schema, prerequisite and quiz errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		src, err := rt.source()
		if err != nil {
			return err
		}
		// Schema and version checks run while decoding.
		videos, err := catalog.FetchAll(cmd.Context(), src, rt.learner())
		if err != nil {
			return err
		}

		report := queue.Validate(videos)
		if sel, err := rt.requireSelection(); err == nil {
			if _, err := queue.Build(catalog.Select(videos, sel), sel.Level); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("%s %s: %v", sel.Level, sel.Subject, err))
			}
		}

		for _, w := range report.Warnings {
			fmt.Println("warning:", w)
		}
		for _, e := range report.Errors {
			fmt.Println("error:  ", e)
		}
		fmt.Printf("\n%d videos, %d errors, %d warnings\n", len(videos), len(report.Errors), len(report.Warnings))
		return report.Err()
	},
}
