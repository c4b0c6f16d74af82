package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"wine-classifier/internal/client"
	"wine-classifier/internal/features"
	"wine-classifier/internal/ml"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		addr     = flag.String("addr", "http://localhost:8501", "Classifier base URL")
		timeout  = flag.Duration("timeout", 5*time.Second, "Request timeout")
		logLevel = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
		asJSON   = flag.Bool("json", false, "Print the full response as JSON")
		schema   = flag.Bool("schema", false, "Print the accepted controls and exit")
	)

	values := make(map[string]*float64, len(features.Controls))
	for _, c := range features.Controls {
		values[c.Name] = flag.Float64(c.Name, c.Default, fmt.Sprintf("%s [%g, %g]", c.Label, c.Min, c.Max))
	}
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	c := client.New(*addr, *timeout)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *schema {
		resp, err := c.Schema(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to fetch schema")
		}
		for _, ctl := range resp.Controls {
			fmt.Printf("%-22s %-32s [%g, %g] default %g\n", ctl.Name, ctl.Label, ctl.Min, ctl.Max, ctl.Default)
		}
		return
	}

	var raw features.RawObservation
	for name, v := range values {
		raw.Set(name, *v)
	}
	if err := raw.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid measurements")
	}

	log.Debug().Str("addr", *addr).Interface("input", raw).Msg("Sending observation")

	resp, err := c.Predict(ctx, raw)
	if err != nil {
		log.Fatal().Err(err).Msg("Classification failed")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode response")
		}
		return
	}

	fmt.Printf("%s %s\n", resp.Verdict.Icon, resp.Verdict.Text)
	if resp.Verdict.Category != ml.CategoryGood {
		os.Exit(2)
	}
}
