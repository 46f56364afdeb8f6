// Package validate checks request payloads against their validate tags at
// the HTTP edge, before any service logic runs.
package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

// Struct validates s against its validate tags and flattens any violations
// into a single client-presentable error. The messages name the field and
// the failed rule but never echo the submitted value, so a mistyped code is
// not reflected back over the wire.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("%s does not satisfy '%s'", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
