// Command genmock builds test fixtures from an ArcGIS outage query response.
// It reads a captured response file, or fetches the live feed for -county,
// and writes the raw features alongside the normalized outages produced by
// the domain package so fixtures always match real normalizer behavior.
//
// Usage:
//
//	go run ./cmd/genmock -county Mayo \
//	  -raw-out internal/domain/testdata/mayo_features.json \
//	  -normalized-out internal/domain/testdata/mayo_outages.json
//
//	go run ./cmd/genmock -in captured.json -normalized-out outages.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/water-outage-monitor/internal/adapter/arcgis"
	"github.com/couchcryptid/water-outage-monitor/internal/config"
	"github.com/couchcryptid/water-outage-monitor/internal/domain"
	"github.com/couchcryptid/water-outage-monitor/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "captured ArcGIS query response (JSON)")
	county := flag.String("county", "", "fetch the live feed for this county instead of -in")
	url := flag.String("url", config.DefaultArcGISURL, "ArcGIS query endpoint used with -county")
	rawOut := flag.String("raw-out", "", "output path for the raw feature set fixture")
	normOut := flag.String("normalized-out", "", "output path for the normalized outages fixture")
	flag.Parse()

	if (*in == "") == (*county == "") || *normOut == "" {
		flag.Usage()
		return fmt.Errorf("exactly one of -in or -county, and -normalized-out, are required")
	}

	var (
		records []domain.RawOutageRecord
		err     error
	)
	if *in != "" {
		records, err = readCaptured(*in)
	} else {
		client := arcgis.NewClient(*url, 30*time.Second, observability.NewMetricsForTesting(),
			slog.New(slog.NewTextHandler(io.Discard, nil)))
		records, err = client.FetchOpenOutages(context.Background(), *county)
	}
	if err != nil {
		return err
	}
	log.Printf("read %d records", len(records))

	if *rawOut != "" {
		if err := writeJSON(*rawOut, featureSet(records)); err != nil {
			return fmt.Errorf("writing raw fixture: %w", err)
		}
		log.Printf("wrote raw fixture: %s", *rawOut)
	}

	outages := domain.NormalizeAll(records)
	if err := writeJSON(*normOut, outages); err != nil {
		return fmt.Errorf("writing normalized fixture: %w", err)
	}
	log.Printf("wrote normalized fixture: %s", *normOut)

	printStats(outages)
	return nil
}

func readCaptured(path string) ([]domain.RawOutageRecord, error) {
	f, err := os.Open(path) // #nosec G304 -- developer-supplied fixture path
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var fs domain.FeatureSet
	dec := json.NewDecoder(f)
	dec.UseNumber()
	if err := dec.Decode(&fs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return domain.RecordsFromFeatures(fs.Features), nil
}

func featureSet(records []domain.RawOutageRecord) domain.FeatureSet {
	fs := domain.FeatureSet{Features: make([]domain.Feature, 0, len(records))}
	for _, r := range records {
		fs.Features = append(fs.Features, domain.Feature{Attributes: r})
	}
	return fs
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func printStats(outages []domain.Outage) {
	var withRef, withStart, noID int
	for _, o := range outages {
		if o.Reference != nil {
			withRef++
		}
		if o.StartHuman != nil {
			withStart++
		}
		if o.ObjectID == nil {
			noID++
		}
	}
	log.Printf("outages=%d with_reference=%d with_start=%d without_object_id=%d",
		len(outages), withRef, withStart, noID)
}
