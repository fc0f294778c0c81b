package platform

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewPlatformRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a platform",
		Long:  "Remove a platform",
		Example: `
		# Remove a platform
		mljet platform remove my-platform`,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			names := []string{}
			for _, d := range DefaultPlatformManager.List() {
				names = append(names, d.Name)
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("platform remove requires one argument")
			}
			for _, name := range args {
				if err := DefaultPlatformManager.Remove(name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	return cmd
}
