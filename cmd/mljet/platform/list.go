package platform

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func NewPlatformListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list configured platforms",
		Long:  "List platforms",
		Example: `
	# List platforms

		mljet platform list

		`,
		RunE: func(cmd *cobra.Command, args []string) error {
			details := DefaultPlatformManager.List()
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Name", "URL"})
			for _, item := range details {
				t.AppendRow(table.Row{item.Name, item.URL})
			}
			t.Render()
			return nil
		},
	}
	return cmd
}

func CompletePlatform(toComplete string) ([]string, cobra.ShellCompDirective) {
	names := []string{}
	for _, item := range DefaultPlatformManager.List() {
		if toComplete == "" || len(item.Name) >= len(toComplete) && item.Name[:len(toComplete)] == toComplete {
			names = append(names, item.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoSpace
}
