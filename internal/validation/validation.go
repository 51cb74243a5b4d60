package validation

import (
	"errors"
	"sort"
	"strings"
)

// ErrValidation matches any *Errors via errors.Is.
var ErrValidation = errors.New("validation failed")

// Errors maps a field name to the reason it was rejected.
type Errors map[string]string

func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Err returns nil when no field failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool { return target == ErrValidation }

// Fields extracts the field map from err, if it carries one.
func Fields(err error) (Errors, bool) {
	var ve Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
