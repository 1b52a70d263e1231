package rnn

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Config is the JSON form of a network description.
type Config struct {
	TimeDepth      int   `json:"time_depth"`
	LayerItemSizes []int `json:"layer_item_sizes"`
	// Seed makes weight initialization deterministic when non-zero.
	Seed int64 `json:"seed,omitempty"`
}

// NewFromJSON builds a network from a serialized Config. Validation follows
// New; a malformed document is a construction failure.
func NewFromJSON(data []byte, logger *logrus.Logger) (*Network, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config: %v", ErrConstruction, err)
	}
	return newNetwork(cfg.TimeDepth, cfg.LayerItemSizes, cfg.Seed, logger)
}
