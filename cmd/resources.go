package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	resourcesOutputFormat string
	resourcesEndpoint     string
	resourcesTimeout      string
)

// resourcesCmd lists the resources a server advertises
var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List the resources of a running awsmcp server",
	Long: `List the static aws:// resources and the server-info manifest.

Use 'awsmcp resources read <uri>' to print one of them.`,
	Args: cobra.NoArgs,
	RunE: runResourcesList,
}

var resourcesReadCmd = &cobra.Command{
	Use:   "read <uri>",
	Short: "Print a resource",
	Long: `Print the text of a resource.

Examples:
  awsmcp resources read aws://server-info
  awsmcp resources read aws://logs`,
	Args: cobra.ExactArgs(1),
	RunE: runResourcesRead,
}

func init() {
	rootCmd.AddCommand(resourcesCmd)
	resourcesCmd.AddCommand(resourcesReadCmd)

	resourcesCmd.PersistentFlags().StringVarP(&resourcesOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	resourcesCmd.PersistentFlags().StringVar(&resourcesEndpoint, "endpoint", "", "Server URL (default from configuration)")
	resourcesCmd.PersistentFlags().StringVar(&resourcesTimeout, "timeout", "", "Request timeout, e.g. 30s")
}

func runResourcesList(cmd *cobra.Command, args []string) error {
	executor, err := newExecutor(cmd, resourcesOutputFormat, false, resourcesEndpoint, resourcesTimeout)
	if err != nil {
		return err
	}
	defer executor.Close()

	ctx := commandContext(cmd)
	if err := executor.Connect(ctx); err != nil {
		return err
	}
	return executor.ListResources(ctx)
}

func runResourcesRead(cmd *cobra.Command, args []string) error {
	executor, err := newExecutor(cmd, resourcesOutputFormat, false, resourcesEndpoint, resourcesTimeout)
	if err != nil {
		return err
	}
	defer executor.Close()

	ctx := commandContext(cmd)
	if err := executor.Connect(ctx); err != nil {
		return err
	}
	return executor.ReadResource(ctx, args[0])
}

func parseTimeout(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", value)
	}
	return d, nil
}
