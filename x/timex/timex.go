package timex

import "golang.org/x/exp/constraints"

// Since returns now-start in modular arithmetic, so a free-running counter
// that wrapped between the two samples still yields the elapsed count.
func Since[T constraints.Unsigned](start, now T) T { return now - start }

// Reached reports whether at least d units elapsed between start and now.
func Reached[T constraints.Unsigned](start, now, d T) bool { return Since(start, now) >= d }
