package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shaiso/toolflow/internal/xjson"
)

// maxBodySize — ограничение тела запроса.
const maxBodySize = 4 << 20

// errBadRequest — некорректный запрос клиента (400).
var errBadRequest = errors.New("bad request")

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeBody читает JSON тело запроса и проверяет теги validate.
// Числа разбираются как json.Number.
func decodeBody(r *http.Request, dst any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", errBadRequest, err)
	}
	if len(data) > maxBodySize {
		return fmt.Errorf("%w: body too large", errBadRequest)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("%w: empty body", errBadRequest)
	}
	if err := xjson.UnmarshalNumbers(data, dst); err != nil {
		return fmt.Errorf("%w: invalid request body", errBadRequest)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", errBadRequest, describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
