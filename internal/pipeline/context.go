package pipeline

import (
	"fmt"

	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/internal/runconfig"
)

// RunContext identifies one batch run
type RunContext struct {
	Market string `json:"market"`
	AsOf   string `json:"asof"`
	RunID  string `json:"run_id"`
}

// NewRunContext validates the run identity
func NewRunContext(market, asof, runID string) (RunContext, error) {
	if market != contracts.MarketJP && market != contracts.MarketUS {
		return RunContext{}, faults.Configuration("run market must be JP or US")
	}
	if !contracts.ValidDate(asof) {
		return RunContext{}, faults.Configuration("run asof must be YYYY-MM-DD")
	}
	if runID == "" {
		return RunContext{}, faults.Configuration("run_id must not be empty")
	}
	return RunContext{Market: market, AsOf: asof, RunID: runID}, nil
}

// Context is the immutable per-run state threaded through every stage.
// Created once at run start; every mutation produces a new copy, so
// intermediate states remain inspectable. Degraded is monotonic: once set,
// later stages add reasons but never clear it.
// ⭐ SSOT: 런 단위 실행 상태는 이 타입에만 존재
type Context struct {
	Run      RunContext
	Policy   contracts.PolicySnapshot
	PolicyID string
	Config   runconfig.Config

	Degraded        bool
	DegradedReasons []string
	Notes           map[string]interface{}
}

// NewContext validates cross-field consistency at construction: the policy
// must be pinned to the run's as-of date and the resolved configuration must
// target the run's market.
func NewContext(run RunContext, policy contracts.PolicySnapshot, cfg runconfig.Config) (Context, error) {
	if err := policy.Validate(); err != nil {
		return Context{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Context{}, err
	}
	if policy.AsOf != run.AsOf {
		return Context{}, faults.Configuration(
			fmt.Sprintf("policy asof %s does not match run asof %s", policy.AsOf, run.AsOf))
	}
	if policy.Constraints.Market != run.Market {
		return Context{}, faults.Configuration(
			fmt.Sprintf("policy market %s does not match run market %s", policy.Constraints.Market, run.Market))
	}
	if cfg.Market != run.Market {
		return Context{}, faults.Configuration(
			fmt.Sprintf("config market %s does not match run market %s", cfg.Market, run.Market))
	}

	policyID, err := policy.Fingerprint()
	if err != nil {
		return Context{}, err
	}

	return Context{
		Run:             run,
		Policy:          policy,
		PolicyID:        policyID,
		Config:          cfg,
		DegradedReasons: []string{},
		Notes:           map[string]interface{}{},
	}, nil
}

// WithNote returns a copy with one diagnostic note set
func (c Context) WithNote(key string, value interface{}) Context {
	clone := c.clone()
	clone.Notes[key] = value
	return clone
}

// MarkDegraded returns a copy with the degraded flag raised and the reason
// recorded. The flag never goes back down within a run.
func (c Context) MarkDegraded(reason string) Context {
	clone := c.clone()
	clone.Degraded = true
	clone.DegradedReasons = append(clone.DegradedReasons, reason)
	return clone
}

func (c Context) clone() Context {
	notes := make(map[string]interface{}, len(c.Notes)+1)
	for k, v := range c.Notes {
		notes[k] = v
	}
	reasons := make([]string, len(c.DegradedReasons), len(c.DegradedReasons)+1)
	copy(reasons, c.DegradedReasons)

	clone := c
	clone.Notes = notes
	clone.DegradedReasons = reasons
	return clone
}
