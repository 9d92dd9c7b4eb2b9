package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shalmon/dohapi/internal/provider"
)

// ErrUnknownKey is returned for keys that are not configuration settings.
var ErrUnknownKey = errors.New("unknown config key")

type kind int

const (
	kindString kind = iota
	kindBool
	kindPositiveInt
	kindNonNegativeInt
	kindNonNegativeFloat
	kindDuration
	kindEnum
)

type keySpec struct {
	kind    kind
	choices func() []string
}

var keys = map[string]keySpec{
	"verbose":     {kind: kindBool},
	"output":      {kind: kindEnum, choices: outputFormats},
	"provider":    {kind: kindEnum, choices: provider.IDs},
	"proxy":       {kind: kindString},
	"user_agent":  {kind: kindString},
	"timeout":     {kind: kindDuration},
	"concurrency": {kind: kindPositiveInt},
	"doh_rps":     {kind: kindNonNegativeFloat},
	"doh_burst":   {kind: kindNonNegativeInt},
	"cache_ttl":   {kind: kindDuration},
}

func outputFormats() []string { return []string{"text", "json", "table"} }

// NormalizeKey maps a flag name (user-agent) onto its config key (user_agent).
func NormalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "-", "_")
}

// ValidKeys returns every config key in sorted order.
func ValidKeys() []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ValidateKey reports whether key (in flag or config spelling) is a setting.
func ValidateKey(key string) error {
	if _, ok := keys[NormalizeKey(key)]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}

// ParseValue converts value to the type of key, rejecting values Load would
// not accept.
func ParseValue(key, value string) (any, error) {
	spec, ok := keys[NormalizeKey(key)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	switch spec.kind {
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a boolean", key, value)
		}
		return b, nil
	case kindPositiveInt, kindNonNegativeInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not an integer", key, value)
		}
		if n < 0 || (n == 0 && spec.kind == kindPositiveInt) {
			return nil, fmt.Errorf("%s: %d is out of range", key, n)
		}
		return n, nil
	case kindNonNegativeFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("%s: %q is not a non-negative number", key, value)
		}
		return f, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%s: %q is not a non-negative duration", key, value)
		}
		return d, nil
	case kindEnum:
		if !slices.Contains(spec.choices(), value) {
			return nil, fmt.Errorf("%s: %q must be one of %s", key, value, strings.Join(spec.choices(), ", "))
		}
		return value, nil
	default:
		return value, nil
	}
}
