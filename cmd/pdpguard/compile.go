package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agentops/pdpguard/pkg/compiler"
)

// newCompileCmd turns a natural-language prompt into a workflow file.
func newCompileCmd() *cobra.Command {
	var (
		output      string
		useFallback bool
	)

	cmd := &cobra.Command{
		Use:   "compile <prompt>",
		Short: "Compile a natural-language request into a workflow spec",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			prompt := strings.Join(args, " ")
			w, repaired, err := a.compiler.Compile(cmd.Context(), prompt)
			fellBack := false
			if err != nil {
				if !useFallback {
					return err
				}
				a.logger.Warn("compiler failed, using fallback", "error", err)
				w, err = compiler.Fallback(prompt)
				if err != nil {
					return err
				}
				fellBack = true
			}

			data, err := yaml.Marshal(w)
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, data, 0644); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "wrote %s\n", output)
			} else {
				os.Stdout.Write(data)
			}
			if repaired {
				fmt.Fprintln(os.Stderr, "note: the first attempt failed validation and was repaired")
			}
			if fellBack {
				fmt.Fprintln(os.Stderr, "note: built deterministically from the URLs in the prompt")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the workflow YAML to a file")
	cmd.Flags().BoolVar(&useFallback, "fallback", true, "Build from prompt URLs when the compiler fails")
	return cmd
}
