package job

import (
	"fmt"

	"github.com/spf13/cobra"

	"mljet.io/mljet/cmd/mljet/platform"
	"mljet.io/mljet/pkg/client"
)

// PlatformClient resolves the named platform, falling back to the only
// configured one when name is empty.
func PlatformClient(name string) (*client.Client, error) {
	if name == "" {
		details := platform.DefaultPlatformManager.List()
		switch len(details) {
		case 0:
			return nil, fmt.Errorf("no platform configured, run: mljet platform add")
		case 1:
			return details[0].Client(), nil
		default:
			return nil, fmt.Errorf("multiple platforms configured, pick one with --platform")
		}
	}
	details, err := platform.DefaultPlatformManager.Get(name)
	if err != nil {
		return nil, err
	}
	return details.Client(), nil
}

func AddPlatformFlag(cmd *cobra.Command, into *string) {
	cmd.Flags().StringVarP(into, "platform", "p", "", "platform name from mljet platform list")
	cmd.RegisterFlagCompletionFunc("platform", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return platform.CompletePlatform(toComplete)
	})
}
