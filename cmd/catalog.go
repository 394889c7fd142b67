package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gnolang/splint/catalog"
	"github.com/gnolang/splint/lint"
)

var entryStyle = color.New(color.Bold)

func newCatalogCmd() *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the schema catalog",
	}

	catalogCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalog entries with their file patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := configuredCatalog()
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), c.Entries())
		},
	})

	catalogCmd.AddCommand(&cobra.Command{
		Use:   "match [files...]",
		Short: "Show which catalog entries select each file, without fetching anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := configuredCatalog()
			if err != nil {
				return err
			}
			return printMatches(cmd.OutOrStdout(), c, args)
		},
	})

	return catalogCmd
}

func configuredCatalog() (*catalog.Catalog, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return lint.Catalog(config)
}

func printEntries(w io.Writer, entries []catalog.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFILE MATCH\tURL")
	for _, e := range entries {
		patterns := strings.Join(e.FileMatch, ",")
		if patterns == "" {
			patterns = "-"
		}
		url := e.URL
		if url == "" {
			url = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, patterns, url)
	}
	return tw.Flush()
}

func printMatches(w io.Writer, c *catalog.Catalog, paths []string) error {
	for _, path := range paths {
		entries, err := c.Match(path)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(w, "%s: no match\n", path)
			continue
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, entryStyle.Sprint(e.Name))
		}
		fmt.Fprintf(w, "%s: %s\n", path, strings.Join(names, ", "))
	}
	return nil
}
