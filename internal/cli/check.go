package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mgpai22/setsplit/internal/deps"
	"github.com/mgpai22/setsplit/internal/pipeline"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report the external tools setsplit needs",
	RunE: func(cmd *cobra.Command, args []string) error {
		statuses := deps.CheckBinaries(cmd.Context(), pipeline.Requirements(cfg, true))
		fmt.Println(statusTable(statuses))
		return deps.Require(statuses)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func statusTable(statuses []deps.Status) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Tool", "Status", "Path", "Version / Detail", "Used for"})
	for _, s := range statuses {
		state := "ok"
		detail := s.Version
		switch {
		case !s.Available && s.Optional:
			state = "missing (optional)"
			detail = s.Detail
		case !s.Available:
			state = "missing"
			detail = s.Detail
		}
		tw.AppendRow(table.Row{s.Name, state, s.Command, detail, s.Description})
	}
	return tw.Render()
}
