package runconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
)

// Resolve produces the run configuration for a market: built-in defaults with
// an optional YAML override file decoded on top. The override may set any
// subset of fields; unknown keys are rejected. The result is validated before
// it is returned, so a Config in circulation is always structurally valid.
func Resolve(market, overridePath string) (Config, error) {
	cfg := Defaults(market)

	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		if err != nil {
			return Config{}, faults.Configuration(
				fmt.Sprintf("cannot read config override %s", overridePath)).WithCause(err)
		}
		if err := decodeStrict(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks all range and enum constraints
func (c Config) Validate() error {
	if c.Market != contracts.MarketJP && c.Market != contracts.MarketUS {
		return faults.Configuration("market must be JP or US")
	}
	if c.LookbackDays < 1 {
		return faults.Configuration("lookback_days must be >= 1")
	}
	if c.ATRPeriod < 1 {
		return faults.Configuration("atr_period must be >= 1")
	}
	if c.RSIPeriod < 1 {
		return faults.Configuration("rsi_period must be >= 1")
	}
	if c.PlanID == "" {
		return faults.Configuration("plan_id must not be empty")
	}
	if c.MaxCandidates < 1 {
		return faults.Configuration("max_candidates must be >= 1")
	}
	if c.MaxPositions < 1 {
		return faults.Configuration("max_positions must be >= 1")
	}

	switch c.Universe.Source {
	case UniverseStatic, UniverseDatabase, UniverseScrape:
	default:
		return faults.Configuration("universe.source must be STATIC, DATABASE or SCRAPE")
	}

	switch c.Report.Format {
	case ReportFormatJSON, ReportFormatText:
	default:
		return faults.Configuration("report.format must be JSON or TEXT")
	}

	return nil
}

// Hash returns the deterministic content hash of the resolved configuration,
// recorded in run notes for audit replay
func (c Config) Hash() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", faults.Execution("config serialization failed").WithCause(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12], nil
}

// decodeStrict decodes YAML rejecting unknown keys
func decodeStrict(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return faults.Configuration("invalid YAML").WithCause(err)
	}
	return nil
}
