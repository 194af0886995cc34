package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formdraft/pkg/diff"
)

func newDiffCmd(_ *app) *cobra.Command {
	var (
		html  bool
		plain bool
	)
	cmd := &cobra.Command{
		Use:   "diff SAVED.json DRAFT.json",
		Short: "Show what a draft changes in a saved document",
		Long: `Compare two JSON documents the way draft recovery does. Keys starting
with "_" or "$" and the spriteEnable key are ignored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			saved, err := readJSONFile(args[0])
			if err != nil {
				return err
			}
			recovered, err := readJSONFile(args[1])
			if err != nil {
				return err
			}

			var renderer diff.Renderer
			if html {
				r, err := diff.NewHTMLRenderer()
				if err != nil {
					return err
				}
				renderer = r
			} else {
				r := diff.NewTextRenderer()
				r.Plain = plain
				renderer = r
			}

			out, err := renderer.Render(cmd.Context(), diff.Diff(saved, recovered, diff.DefaultExclude))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "Render a sanitised HTML fragment")
	cmd.Flags().BoolVar(&plain, "plain", false, "Disable colours")
	return cmd
}
