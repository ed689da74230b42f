package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentops/pdpguard/pkg/crawl"
)

// newCrawlCmd discovers product page URLs from a collection page.
func newCrawlCmd() *cobra.Command {
	var maxURLs int

	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Discover product page URLs linked from a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			urls, err := crawl.Discover(cmd.Context(), a.fetcher, args[0], maxURLs)
			if err != nil {
				return err
			}
			for _, u := range urls {
				fmt.Println(u)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxURLs, "max", crawl.DefaultMax, "Maximum number of URLs to return")
	return cmd
}
