// Package controller holds the helpers shared by the admin and user HTTP
// controllers: error rendering, request binding and path/query parsing.
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/auth"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/rs/zerolog/log"
)

// RespondError renders err as a dto.ErrorResponse. Errors that are not an
// *apperr.Error are logged and hidden behind a 500.
func RespondError(c *gin.Context, err error) {
	appErr, ok := apperr.From(err)
	if !ok || appErr.Kind == apperr.KindInternal {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Message: "internal server error",
			Code:    string(apperr.KindInternal),
		})
		return
	}

	status := appErr.Status()
	log.Warn().Str("kind", string(appErr.Kind)).Str("path", c.FullPath()).Msg(appErr.Message)
	resp := dto.ErrorResponse{Message: appErr.Message, Code: string(appErr.Kind), Field: appErr.Field}
	if appErr.Field != "" {
		resp.Details = map[string]string{appErr.Field: appErr.Message}
	}
	c.JSON(status, resp)
}

// BindJSON binds the body into req and answers 400 on failure. It reports
// whether the handler should continue.
func BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("failed to bind JSON")
		c.JSON(http.StatusBadRequest, bindingErrorResponse(err))
		return false
	}
	return true
}

func bindingErrorResponse(err error) dto.ErrorResponse {
	resp := dto.ErrorResponse{Message: "invalid request body", Code: string(apperr.KindValidation)}

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &verrs):
		resp.Details = make(map[string]string, len(verrs))
		for i, fe := range verrs {
			field := fieldPath(fe)
			resp.Details[field] = describeViolation(fe)
			if i == 0 {
				resp.Field = field
			}
		}
	case errors.As(err, &typeErr):
		resp.Field = typeErr.Field
		resp.Details = map[string]string{typeErr.Field: "must be of type " + typeErr.Type.String()}
	case errors.As(err, &syntaxErr):
		resp.Details = map[string]string{"body": "malformed JSON"}
	default:
		resp.Details = map[string]string{"body": err.Error()}
	}
	return resp
}

// fieldPath drops the root struct name, leaving e.g. "questions[0].text".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describeViolation(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "email":
		return "enter a valid email address"
	case "slug":
		return "may contain only letters, digits, hyphens and underscores"
	case "username":
		return "may contain only letters, digits and @/./+/-/_"
	case "price_amount":
		return "must be a non-negative amount with at most 2 decimal places"
	default:
		return "failed on the " + fe.Tag() + " rule"
	}
}

// ParseID reads a positive integer path parameter.
func ParseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		RespondError(c, apperr.Validation(name, "%q is not a valid id", raw))
		return 0, false
	}
	return uint(id), true
}

// ParseOptionalInt reads an integer query parameter; absent yields nil.
func ParseOptionalInt(c *gin.Context, name string) (*int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Validation(name, "%q is not an integer", raw)
	}
	return &v, nil
}

// ParseOptionalBool accepts 1/0/true/false; absent yields nil.
func ParseOptionalBool(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	switch strings.ToLower(raw) {
	case "1", "true":
		v := true
		return &v, nil
	case "0", "false":
		v := false
		return &v, nil
	}
	return nil, apperr.Validation(name, "%q is not one of 1, 0, true, false", raw)
}

// Viewer returns the authenticated caller, or nil for anonymous requests.
func Viewer(c *gin.Context) *auth.Viewer {
	return auth.ViewerFrom(c.Request.Context())
}
