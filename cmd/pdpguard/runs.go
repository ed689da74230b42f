package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newRunsCmd lists or shows persisted runs.
func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "List recent runs, or show one by ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			if a.store == nil {
				return fmt.Errorf("run history is disabled in the config")
			}

			if len(args) == 1 {
				rec, err := a.store.Get(args[0])
				if err != nil {
					return err
				}
				return printJSON(rec)
			}

			runs, err := a.store.List(limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Printf("%s  %s  %s  %d/%d passed\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.ID, r.Name,
					r.Summary.Passed, r.Summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}
