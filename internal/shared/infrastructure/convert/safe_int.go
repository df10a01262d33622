// Package convert provides safe type conversion utilities.
package convert

import (
	"fmt"
	"math"
)

// IntToInt32 safely converts an int to int32, returning an error if overflow occurs.
func IntToInt32(v int) (int32, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int32", v)
	}
	return int32(v), nil
}
