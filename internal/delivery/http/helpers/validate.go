package helpers

import (
	"encoding/json"
	"errors"
	"net/http"

	"calendasync/internal/domain"
)

// Validator is implemented by request DTOs that check their own shape before reaching a service.
// Validate returns nil or a *domain.ValidationError.
type Validator interface {
	Validate() error
}

// DecodeAndValidate decodes the request body into dest (with DisallowUnknownFields)
// and, if dest implements Validator, runs Validate(). On decode or validation failure
// it writes a 400 JSON error and returns false; otherwise returns true.
// Callers should return immediately when DecodeAndValidate returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return false
	}
	if v, ok := dest.(Validator); ok {
		if err := v.Validate(); err != nil {
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				writeError(w, http.StatusBadRequest, &APIError{Code: ErrCodeBadRequest, Message: ve.Error(), Fields: ve.Fields})
			} else {
				WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			}
			return false
		}
	}
	return true
}

// Required returns a validation error listing every named field whose value is blank.
// Pairs are field name followed by value.
func Required(pairs ...string) error {
	var fields []domain.FieldError
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			fields = append(fields, domain.FieldError{Field: pairs[i], Message: pairs[i] + " is required"})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &domain.ValidationError{Fields: fields}
}
