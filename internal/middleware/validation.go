package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	apierrors "energydash/internal/errors"
	"energydash/pkg/contracts/domain"
)

// ValidationMiddleware provides request validation using struct tags
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New()

	v.RegisterValidation("granularity", func(fl validator.FieldLevel) bool {
		return domain.Granularity(fl.Field().String()).Valid()
	})
	v.RegisterValidation("metric", func(fl validator.FieldLevel) bool {
		return domain.Metric(fl.Field().String()).Valid()
	})
	v.RegisterValidation("groupby", func(fl validator.FieldLevel) bool {
		return domain.GroupBy(fl.Field().String()).Valid()
	})
	v.RegisterValidation("sitemode", func(fl validator.FieldLevel) bool {
		return domain.SiteMode(fl.Field().String()).Valid()
	})
	v.RegisterValidation("period", isPeriodValue)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
		maxBodySize:  1 << 20,
	}
}

// ValidateRequest rejects oversized or malformed JSON bodies before they
// reach a handler
func (m *ValidationMiddleware) ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > m.maxBodySize {
			m.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusRequestEntityTooLarge,
				"PAYLOAD_TOO_LARGE",
				"Request body exceeds maximum allowed size",
				map[string]interface{}{"max_size": m.maxBodySize, "size": r.ContentLength},
			))
			return
		}

		if r.Body != nil && r.ContentLength != 0 {
			body, err := io.ReadAll(io.LimitReader(r.Body, m.maxBodySize))
			if err != nil {
				m.logger.ErrorContext(r.Context(), "failed to read request body",
					slog.String("error", err.Error()),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				m.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if len(body) > 0 && !json.Valid(body) {
				m.errorHandler.HandleError(w, r, apierrors.New(
					http.StatusBadRequest,
					"INVALID_REQUEST",
					"Request body contains invalid JSON",
				))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// ValidateStruct validates v and returns an *APIError listing every failed field
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

// DecodeAndValidate decodes a JSON body into dst and validates it
func (m *ValidationMiddleware) DecodeAndValidate(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apierrors.InvalidRequestWithError(err)
	}
	return m.ValidateStruct(dst)
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "granularity":
		return fmt.Sprintf("%s must be one of: year, quarter, month, week, day", field)
	case "metric":
		return fmt.Sprintf("%s is not a known metric", field)
	case "groupby":
		return fmt.Sprintf("%s must be site or machine", field)
	case "sitemode":
		return fmt.Sprintf("%s must be one of: single, breakdown, total", field)
	case "period":
		return fmt.Sprintf("%s must be a period key or label", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isPeriodValue accepts a period key, label or date; the exact form is
// checked against the granularity by the handler.
func isPeriodValue(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	return len(s) <= 20 && !strings.ContainsAny(s, "<>{}\"'")
}

// QueryParamValidator validates query parameters
type QueryParamValidator struct {
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{errorHandler: errorHandler}
}

// ValidateEnum validates an enum query parameter, writing the error response on failure
func (v *QueryParamValidator) ValidateEnum(w http.ResponseWriter, r *http.Request, param string, allowed []string, defaultValue string) (string, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}
	for _, a := range allowed {
		if value == a {
			return value, true
		}
	}
	v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", "))))
	return "", false
}
