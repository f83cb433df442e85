// services/hal/internal/halerr/errors.go
package halerr

import "errors"

var (
	// Clock tree
	ErrHSINotReady     = errors.New("hsi_not_ready")
	ErrSWSMismatch     = errors.New("sws_mismatch")
	ErrLatencyReadback = errors.New("latency_readback")
	ErrLatencyTooLow   = errors.New("latency_too_low")
	ErrLatencyTooHigh  = errors.New("latency_too_high")

	// Build/config
	ErrInvalidDivider = errors.New("invalid_divider")
	ErrInvalidMode    = errors.New("invalid_mode")
	ErrUnknownPin     = errors.New("unknown_pin")
	ErrTickReload     = errors.New("tick_reload_out_of_range")

	// Generic / pass-through
	ErrUnsupported = errors.New("unsupported")
)
