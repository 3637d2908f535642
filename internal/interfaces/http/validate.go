package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

var validate = newValidator()

// newValidator reporta los campos con su nombre JSON (o de query string).
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = fld.Tag.Get("query")
		}
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseAndValidate decodifica el cuerpo y aplica las etiquetas `validate`. Si falla, ya
// escribió la respuesta 400/422 y devuelve ok=false.
func parseAndValidate(c *fiber.Ctx, out any) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return checkStruct(c, out)
}

func checkStruct(c *fiber.Ctx, v any) (bool, error) {
	err := validate.Struct(v)
	if err == nil {
		return true, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	details := make([]dto.ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, dto.ErrorDetail{
			Field:   fe.Field(),
			Code:    strings.ToUpper(fe.Tag()),
			Message: fe.Error(),
		})
	}
	return false, c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
		Code:    "VALIDATION",
		Message: "datos inválidos",
		Details: details,
	})
}
