package utils

import (
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

func CreateError(statusCode int, message string, ctx iris.Context) {
	ctx.StopWithJSON(statusCode, iris.Map{"error": message})
}

func CreateInternalServerError(ctx iris.Context) {
	CreateError(iris.StatusInternalServerError, "Internal server error", ctx)
}

func CreateNotFound(ctx iris.Context) {
	CreateError(iris.StatusNotFound, "Not found", ctx)
}

func CreateForbidden(ctx iris.Context) {
	CreateError(iris.StatusForbidden, "Not authorized", ctx)
}

// HandleValidationErrors maps ReadJSON failures to a 400. Field-level
// validator errors get a readable summary; anything else is a malformed body.
func HandleValidationErrors(err error, ctx iris.Context) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]string, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fields = append(fields, fieldErr.Field())
		}
		CreateError(iris.StatusBadRequest, "Invalid fields: "+strings.Join(fields, ", "), ctx)
		return
	}
	CreateError(iris.StatusBadRequest, "Invalid request body", ctx)
}

// LogError records internal failure detail; the detail never reaches clients.
func LogError(op string, err error) {
	log.Printf("%s: %v", op, err)
}
