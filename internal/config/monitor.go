package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Monitor validation errors.
var (
	ErrMissingCounty    = errors.New("county is required")
	ErrMissingRecipient = errors.New("recipient email address is required")
	ErrInvalidInterval  = errors.New("poll interval must be positive")
	ErrMissingStatePath = errors.New("state path is required")
)

const (
	DefaultPollInterval = 300 * time.Second
	DefaultStatePath    = "state.json"
)

// Monitor holds the settings of one poller run, built once at startup from
// flags, the optional YAML file and SMTP environment fallbacks.
type Monitor struct {
	County    string
	To        string
	Interval  time.Duration
	StatePath string
	RefNum    string
	Location  string
	Baseline  bool
	Verbose   bool
	SMTP      SMTPConfig
}

// Validate trims string settings in place and reports the first missing or
// invalid one.
func (m *Monitor) Validate() error {
	m.County = strings.TrimSpace(m.County)
	m.To = strings.TrimSpace(m.To)
	m.StatePath = strings.TrimSpace(m.StatePath)
	m.RefNum = strings.TrimSpace(m.RefNum)
	m.Location = strings.TrimSpace(m.Location)

	if m.County == "" {
		return ErrMissingCounty
	}
	if m.To == "" {
		return ErrMissingRecipient
	}
	if m.Interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, m.Interval)
	}
	if m.StatePath == "" {
		return ErrMissingStatePath
	}
	return nil
}

// monitorFile mirrors the YAML layout. Interval is given in seconds.
type monitorFile struct {
	County          string  `yaml:"county"`
	To              string  `yaml:"to"`
	IntervalSeconds *int    `yaml:"interval"`
	State           string  `yaml:"state"`
	RefNum          string  `yaml:"refnum"`
	Location        string  `yaml:"location"`
	Baseline        *bool   `yaml:"baseline"`
	Verbose         *bool   `yaml:"verbose"`
	SMTP            smtpDoc `yaml:"smtp"`
}

type smtpDoc struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// LoadMonitorFile reads a YAML monitor file. Fields absent from the file are
// left at their zero value and reported in the returned set so callers can
// merge them with flags.
func LoadMonitorFile(path string) (Monitor, map[string]bool, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied
	if err != nil {
		return Monitor{}, nil, fmt.Errorf("read monitor file: %w", err)
	}

	var doc monitorFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Monitor{}, nil, fmt.Errorf("parse monitor file %s: %w", path, err)
	}

	set := make(map[string]bool)
	m := Monitor{}
	str := func(key, v string, dst *string) {
		if v != "" {
			*dst = v
			set[key] = true
		}
	}
	str("county", doc.County, &m.County)
	str("to", doc.To, &m.To)
	str("state", doc.State, &m.StatePath)
	str("refnum", doc.RefNum, &m.RefNum)
	str("location", doc.Location, &m.Location)
	str("smtp-host", doc.SMTP.Host, &m.SMTP.Host)
	str("smtp-user", doc.SMTP.User, &m.SMTP.Username)
	str("smtp-password", doc.SMTP.Password, &m.SMTP.Password)
	str("smtp-from", doc.SMTP.From, &m.SMTP.From)

	if doc.IntervalSeconds != nil {
		m.Interval = time.Duration(*doc.IntervalSeconds) * time.Second
		set["interval"] = true
	}
	if doc.Baseline != nil {
		m.Baseline = *doc.Baseline
		set["baseline"] = true
	}
	if doc.Verbose != nil {
		m.Verbose = *doc.Verbose
		set["verbose"] = true
	}
	if doc.SMTP.Port != 0 {
		m.SMTP.Port = doc.SMTP.Port
		set["smtp-port"] = true
	}
	return m, set, nil
}
