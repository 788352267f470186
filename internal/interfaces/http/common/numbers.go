package common

import (
	"math"
	"strconv"
	"strings"

	"github.com/sngm3741/delicious/api/internal/catalog/domain"
)

// ParsePositiveInt parses positive integers with fallback.
func ParsePositiveInt(value string, fallback int) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback, false
	}
	return parsed, true
}

// ParseFloat parses a required finite float query or form value.
func ParseFloat(name, value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, domain.Validationf("%s is required", name)
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, domain.Validationf("%s must be a number", name)
	}
	return parsed, nil
}
