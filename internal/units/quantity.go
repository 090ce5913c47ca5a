package units

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
)

// ParseQuantity parses a recipe quantity string: decimals ("1.5"), simple
// fractions ("1/2") and mixed numbers ("1 1/2").
func ParseQuantity(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, apperrors.ValidationError("quantity is required")
	}

	parts := strings.Fields(s)
	switch len(parts) {
	case 1:
		return parseNumberOrFraction(parts[0])
	case 2:
		whole, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, apperrors.ValidationError(fmt.Sprintf("invalid quantity %q", raw))
		}
		frac, err := parseFraction(parts[1])
		if err != nil {
			return 0, apperrors.ValidationError(fmt.Sprintf("invalid quantity %q", raw))
		}
		return whole + frac, nil
	default:
		return 0, apperrors.ValidationError(fmt.Sprintf("invalid quantity %q", raw))
	}
}

func parseNumberOrFraction(s string) (float64, error) {
	if strings.Contains(s, "/") {
		v, err := parseFraction(s)
		if err != nil {
			return 0, apperrors.ValidationError(fmt.Sprintf("invalid quantity %q", s))
		}
		return v, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, apperrors.ValidationError(fmt.Sprintf("invalid quantity %q", s))
	}
	if v < 0 {
		return 0, apperrors.ValidationError("quantity cannot be negative")
	}
	return v, nil
}

func parseFraction(s string) (float64, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0, fmt.Errorf("not a fraction: %s", s)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("zero denominator: %s", s)
	}
	return n / d, nil
}
