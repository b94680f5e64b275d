package params

import (
	"github.com/ethereum/go-ethereum/metrics"
)

func init() {
	metrics.Enabled = true
}

// DefaultBufferSize sizes the channels between stream stages.
var DefaultBufferSize = 1_000

// DefaultDeviceName is used for fixes that carry no device name.
var DefaultDeviceName = "default"
