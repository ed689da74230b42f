package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentops/pdpguard/pkg/spec"
)

// newSimulateCmd verifies a workflow's targets without dispatching.
func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <workflow.yaml>",
		Short: "Verify targets and show the selected branch without notifying",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			w, err := spec.LoadWorkflow(args[0])
			if err != nil {
				return err
			}
			res, err := a.runner.Simulate(cmd.Context(), w)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	return cmd
}

// newRunCmd executes a workflow end to end.
func newRunCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "run <workflow.yaml>",
		Short: "Verify targets, select the branch, and dispatch its actions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			w, err := spec.LoadWorkflow(args[0])
			if err != nil {
				return err
			}
			if w.RequireApproval && !yes {
				return fmt.Errorf("workflow %q requires approval: re-run with --yes", w.Name)
			}

			res, err := a.runner.Run(cmd.Context(), w)
			if err != nil {
				return err
			}
			if err := printJSON(res); err != nil {
				return err
			}
			if res.Summary.Failed > 0 {
				return fmt.Errorf("%d of %d targets failed", res.Summary.Failed, res.Summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Approve workflows marked require_approval")
	return cmd
}
