package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// MaxRequestBodyBytes bounds every decoded request body.
const MaxRequestBodyBytes = 1 << 20

var (
	errEmptyBody    = errors.New("request body is empty")
	errTrailingData = errors.New("unexpected data after JSON body")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeJSON strictly decodes one JSON value from the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}

// ValidateRequest applies the struct's validate tags, then its own
// Validate method when it has one.
func ValidateRequest(v any) error {
	if err := validate.Struct(v); err != nil {
		return err
	}
	if cv, ok := v.(interface{ Validate() error }); ok {
		return cv.Validate()
	}
	return nil
}
