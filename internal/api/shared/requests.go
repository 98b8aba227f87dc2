package shared

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/places-api/internal/platform/objectstore"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("imageref", validateImageRef); err != nil {
		panic(err)
	}
	return v
}

// validateImageRef accepts object store image refs. The optional parameter
// pins the prefix, e.g. `validate:"omitempty,imageref=users"`.
func validateImageRef(fl validator.FieldLevel) bool {
	ref := fl.Field().String()
	if objectstore.ValidateRef(ref) != nil {
		return false
	}
	if prefix := fl.Param(); prefix != "" {
		return strings.HasPrefix(ref, prefix+"/")
	}
	return true
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// ValidateRequest validates v's struct tags.
func ValidateRequest(v any) error {
	return validate.Struct(v)
}
