// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"encoding/json"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/symmem/trace"
)

type Config struct {
	LogLevel     logging.Level `json:"logLevel"`
	LogDirectory string        `json:"logDirectory"` // console only when empty
	LogMaxSize   int           `json:"logMaxSize"`   // megabytes
	LogMaxFiles  int           `json:"logMaxFiles"`

	// Assertions re-checks the hypotheses of alter and union and the
	// validity of their results.
	Assertions bool `json:"assertions"`
	// FatalViolations makes a failed assertion log at fatal and panic instead
	// of returning [ErrContractViolation].
	FatalViolations bool `json:"fatalViolations"`

	MetricsNamespace string       `json:"metricsNamespace"`
	TraceConfig      trace.Config `json:"traceConfig"`
}

func NewConfig() Config {
	return Config{
		LogLevel:         logging.Info,
		LogMaxSize:       8,
		LogMaxFiles:      4,
		Assertions:       true,
		FatalViolations:  false,
		MetricsNamespace: "symmem",
		TraceConfig:      trace.Config{Enabled: false},
	}
}

// ParseConfig overlays [configBytes] onto the defaults.
func ParseConfig(configBytes []byte) (Config, error) {
	config := NewConfig()
	if len(configBytes) > 0 {
		if err := json.Unmarshal(configBytes, &config); err != nil {
			return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	return config, nil
}
