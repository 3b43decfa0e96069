// Package request checks call arguments against a method's input shape.
//
// Only the top level is validated: required members must be present and no
// undeclared keys may be passed. Keys starting with an underscore are
// reserved for callers and always accepted.
package request

import (
	"sort"
	"strings"

	"github.com/Paranoid-AF/hollow"
	"github.com/Paranoid-AF/hollow/shape"
)

// ReservedPrefix marks keyword arguments that bypass the unknown-key check.
const ReservedPrefix = "_"

// Merge maps positional args onto the input's member names in declaration
// order, then overlays kwargs. The second result counts positional args
// beyond the declared members.
func Merge(input *shape.Shape, args []any, kwargs map[string]any) (map[string]any, int) {
	var names []string
	if input != nil {
		names = input.Members.Names()
	}

	merged := make(map[string]any, len(args)+len(kwargs))
	excess := 0
	for i, arg := range args {
		if i >= len(names) {
			excess++
			continue
		}
		merged[names[i]] = arg
	}
	for k, v := range kwargs {
		merged[k] = v
	}
	return merged, excess
}

// Validate merges the call arguments and checks them against input. The
// merged request is returned even when validation fails, so that callers can
// report what was passed. Failures are *hollow.RequestValidationError with
// Service and Method left for the caller to fill in.
func Validate(input *shape.Shape, args []any, kwargs map[string]any) (map[string]any, error) {
	merged, excess := Merge(input, args, kwargs)
	if excess > 0 {
		return merged, &hollow.RequestValidationError{Excess: excess}
	}

	if missing := Missing(input, merged); len(missing) > 0 {
		return merged, &hollow.RequestValidationError{Missing: missing}
	}
	if unknown := Unknown(input, merged); len(unknown) > 0 {
		return merged, &hollow.RequestValidationError{Unknown: unknown}
	}
	return merged, nil
}

// Missing returns the required member names absent from request, sorted.
func Missing(input *shape.Shape, request map[string]any) []string {
	if input == nil {
		return nil
	}
	var missing []string
	for _, name := range input.Required {
		if _, ok := request[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Unknown returns the request keys the input does not declare, sorted.
// Reserved keys are never reported.
func Unknown(input *shape.Shape, request map[string]any) []string {
	var unknown []string
	for key := range request {
		if strings.HasPrefix(key, ReservedPrefix) {
			continue
		}
		if input != nil {
			if _, ok := input.Members.Get(key); ok {
				continue
			}
		}
		unknown = append(unknown, key)
	}
	sort.Strings(unknown)
	return unknown
}
