package platform

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewPlatformAddCmd() *cobra.Command {
	token := ""
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a platform",
		Long:  "Add a platform",
		Example: `
	# Add a platform
	mljet platform add my-platform https://mljet.example.com
		`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("platform add requires two arguments")
			}
			name := args[0]
			url := args[1]

			return DefaultPlatformManager.Set(PlatformDetails{
				Name:  name,
				URL:   url,
				Token: token,
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", token, "bearer token for the platform")
	return cmd
}
