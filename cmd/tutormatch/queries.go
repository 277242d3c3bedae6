package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newQueriesCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "queries",
		Short: "Validate and print the query templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openQueries(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, key := range store.Keys() {
				tmpl, _ := store.Resolve(key.Resource, key.Variant)
				fmt.Fprintf(out, "%-20s %s\n", key, tmpl)
			}

			if err := store.Validate(); err != nil {
				return fmt.Errorf("invalid query templates: %w", err)
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "JSON query template file (default: built-in templates)")
	return cmd
}
