// Command outage-monitor watches the Water.ie outage feed for one county and
// sends a notification whenever outages appear that it has not seen before.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "outage-monitor",
		Short: "Monitor Irish Water outages for a county",
		Long: `outage-monitor polls the Water.ie outage map for one county and emails
a summary of newly reported outages. Known outages are kept in a state file
so restarts do not repeat notifications.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(listCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
