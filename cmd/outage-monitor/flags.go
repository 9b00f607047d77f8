package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/water-outage-monitor/internal/config"
)

// monitorFlags holds the raw flag values shared by the subcommands.
type monitorFlags struct {
	configPath      string
	intervalSeconds int
	noColor         bool
	metricsAddr     string
	m               config.Monitor
}

// bindFlags registers the monitor flags on cmd. SMTP flags default to the
// values found in the environment.
func bindFlags(cmd *cobra.Command, f *monitorFlags, env config.SMTPConfig) {
	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "YAML file with monitor settings; flags take precedence")
	fs.StringVar(&f.m.County, "county", "", "county to monitor, e.g. Mayo (required)")
	fs.StringVar(&f.m.To, "to", "", "recipient email address (required)")
	fs.IntVar(&f.intervalSeconds, "interval", int(config.DefaultPollInterval/time.Second), "poll interval in seconds")
	fs.StringVar(&f.m.StatePath, "state", config.DefaultStatePath, "state file; .db or .sqlite selects SQLite")
	fs.StringVar(&f.m.RefNum, "refnum", "", "only consider outages with this reference number")
	fs.StringVar(&f.m.Location, "location", "", "only consider outages whose location or description contains this text")
	fs.BoolVar(&f.m.Baseline, "baseline", false, "record existing outages on the first run without notifying")
	fs.BoolVar(&f.m.Verbose, "verbose", false, "print outage descriptions")
	fs.BoolVar(&f.noColor, "no-color", false, "disable coloured output")

	fs.StringVar(&f.m.SMTP.Host, "smtp-host", env.Host, "SMTP server host (env SMTP_HOST)")
	fs.IntVar(&f.m.SMTP.Port, "smtp-port", env.Port, "SMTP server port (env SMTP_PORT)")
	fs.StringVar(&f.m.SMTP.Username, "smtp-user", env.Username, "SMTP username (env SMTP_USER)")
	fs.StringVar(&f.m.SMTP.Password, "smtp-password", env.Password, "SMTP password (env SMTP_PASSWORD)")
	fs.StringVar(&f.m.SMTP.From, "smtp-from", env.From, "sender address (env SMTP_FROM)")
	f.m.SMTP.SubjectPrefix = env.SubjectPrefix
	f.m.SMTP.Timeout = env.Timeout
}

// resolve merges the optional config file under the command-line flags and
// validates the result.
func (f *monitorFlags) resolve(cmd *cobra.Command) (config.Monitor, error) {
	m := f.m
	m.Interval = time.Duration(f.intervalSeconds) * time.Second

	if f.configPath != "" {
		file, set, err := config.LoadMonitorFile(f.configPath)
		if err != nil {
			return config.Monitor{}, err
		}
		for name := range set {
			if !cmd.Flags().Changed(name) {
				applyFileValue(&m, file, name)
			}
		}
	}

	if err := m.Validate(); err != nil {
		return config.Monitor{}, fmt.Errorf("invalid monitor settings: %w", err)
	}
	return m, nil
}

func applyFileValue(dst *config.Monitor, src config.Monitor, name string) {
	switch name {
	case "county":
		dst.County = src.County
	case "to":
		dst.To = src.To
	case "interval":
		dst.Interval = src.Interval
	case "state":
		dst.StatePath = src.StatePath
	case "refnum":
		dst.RefNum = src.RefNum
	case "location":
		dst.Location = src.Location
	case "baseline":
		dst.Baseline = src.Baseline
	case "verbose":
		dst.Verbose = src.Verbose
	case "smtp-host":
		dst.SMTP.Host = src.SMTP.Host
	case "smtp-port":
		dst.SMTP.Port = src.SMTP.Port
	case "smtp-user":
		dst.SMTP.Username = src.SMTP.Username
	case "smtp-password":
		dst.SMTP.Password = src.SMTP.Password
	case "smtp-from":
		dst.SMTP.From = src.SMTP.From
	}
}
