package runconfig

import (
	"fmt"
	"os"

	"github.com/wonny/verdict/internal/contracts"
	"github.com/wonny/verdict/internal/faults"
)

// LoadPolicy reads an operator policy snapshot from a YAML file. When path is
// empty the built-in market defaults are used. Either way the snapshot is
// validated and pinned to the run's as-of date before it is returned.
func LoadPolicy(path, market, asof string) (contracts.PolicySnapshot, error) {
	if path == "" {
		p := DefaultPolicy(market, asof)
		if err := p.Validate(); err != nil {
			return contracts.PolicySnapshot{}, err
		}
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return contracts.PolicySnapshot{}, faults.Configuration(
			fmt.Sprintf("cannot read policy file %s", path)).WithCause(err)
	}

	p := DefaultPolicy(market, asof)
	if err := decodeStrict(data, &p); err != nil {
		return contracts.PolicySnapshot{}, err
	}
	if p.AsOf == "" {
		p.AsOf = asof
	}

	if err := p.Validate(); err != nil {
		return contracts.PolicySnapshot{}, err
	}
	return p, nil
}
