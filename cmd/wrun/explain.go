// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wrun-cli/internal/issue"
)

var explainCmd = &cobra.Command{
	Use:   "explain [issue-id]",
	Short: "Explain a known failure class",
	Long: `Show the help page for a known failure class. Error messages reference
these pages by numeric id. Without an argument, lists every known issue.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listIssues()
		}
		return explainIssue(args[0])
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func listIssues() error {
	all := issue.Values()
	sort.Slice(all, func(i, j int) bool { return all[i].Id() < all[j].Id() })

	fmt.Println(TitleStyle.Render("Known issues"))
	for _, is := range all {
		fmt.Printf("  %s  %s\n",
			CmdStyle.Render(fmt.Sprintf("%d", is.Id())),
			firstLine(string(is.MarkdownMsg())))
	}
	fmt.Println(SubtitleStyle.Render("\nRun 'wrun explain <id>' for the full help page."))
	return nil
}

func explainIssue(arg string) error {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("issue id must be a number, got %q", arg)
	}

	is := issue.Get(issue.Id(id))
	if is == nil {
		return fmt.Errorf("no issue with id %d (run 'wrun explain' to list them)", id)
	}

	page, err := is.Render("dark")
	if err != nil {
		return err
	}
	fmt.Print(page)
	return nil
}

// firstLine extracts the title of an issue page: the first markdown heading,
// stripped of its leading hashes.
func firstLine(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimLeft(line, "# ")
		if line != "" {
			return line
		}
	}
	return ""
}
