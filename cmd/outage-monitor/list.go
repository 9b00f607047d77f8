package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/water-outage-monitor/internal/adapter/arcgis"
	"github.com/couchcryptid/water-outage-monitor/internal/adapter/console"
	"github.com/couchcryptid/water-outage-monitor/internal/config"
	"github.com/couchcryptid/water-outage-monitor/internal/domain"
	"github.com/couchcryptid/water-outage-monitor/internal/observability"
)

func listCmd() *cobra.Command {
	var (
		county, refnum, location string
		verbose, noColor         bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the current open outages for a county",
		Long: `Fetch the open, approved outages for a county once and print them.

Examples:
  outage-monitor list --county Cork
  outage-monitor list --county Mayo --location ballina --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(county) == "" {
				return fmt.Errorf("invalid monitor settings: %w", config.ErrMissingCounty)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			logger := observability.NewLogger(cfg)
			client := arcgis.NewClient(cfg.ArcGISURL, cfg.ArcGISTimeout, observability.NewMetrics(), logger)

			q, err := domain.NewQuery(county, refnum, location)
			if err != nil {
				return err
			}
			raws, err := client.FetchOpenOutages(ctx, q.County)
			if err != nil {
				return fmt.Errorf("could not fetch outages for %s: %w", q.County, err)
			}

			outages := domain.Filter(domain.NormalizeAll(raws), q.RefNum, q.Location)
			console.NewPrinter(os.Stdout, verbose, noColor, q.RefNum, q.Location).Print(q.County, outages)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&county, "county", "", "county to query (required)")
	fs.StringVar(&refnum, "refnum", "", "only show outages with this reference number")
	fs.StringVar(&location, "location", "", "only show outages whose location or description contains this text")
	fs.BoolVar(&verbose, "verbose", false, "print outage descriptions")
	fs.BoolVar(&noColor, "no-color", false, "disable coloured output")
	return cmd
}
