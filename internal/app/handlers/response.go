package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/food-delivery/internal/service"
)

// Категории ошибок в теле ответа
const (
	CategoryNotFound     = "not-found"
	CategoryUnauthorized = "unauthorized"
	CategoryInvalidInput = "invalid-input"
	CategoryServerError  = "server-error"
)

// ErrorResponse - единый формат ошибки для клиента
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var validate = newValidator()

// в сообщениях об ошибках поля называются так же, как в JSON
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, category, message string) {
	writeJSON(w, logger, status, ErrorResponse{Error: category, Message: message})
}

// writeServiceError переводит ошибку сервиса в HTTP-ответ.
// Внутренние детали клиенту не отдаются, они уже залогированы сервисом.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var vErr *service.ValidationError

	switch {
	case errors.As(err, &vErr):
		writeError(w, logger, http.StatusBadRequest, CategoryInvalidInput, vErr.Reason)
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, logger, http.StatusUnauthorized, CategoryUnauthorized, "authentication required")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, logger, http.StatusUnauthorized, CategoryUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrNotAuthorized):
		writeError(w, logger, http.StatusForbidden, CategoryUnauthorized, "not authorized")
	case errors.Is(err, service.ErrOrderNotFound):
		writeError(w, logger, http.StatusNotFound, CategoryNotFound, "order not found")
	case errors.Is(err, service.ErrRestaurantNotFound):
		writeError(w, logger, http.StatusNotFound, CategoryNotFound, "restaurant not found")
	case errors.Is(err, service.ErrInvalidSignature):
		writeError(w, logger, http.StatusBadRequest, CategoryInvalidInput, "payment not verified")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, logger, http.StatusConflict, CategoryInvalidInput, "email already registered")
	case errors.Is(err, service.ErrPaymentProvider):
		writeError(w, logger, http.StatusBadGateway, CategoryServerError, "payment system unavailable")
	default:
		logger.Error("request failed", slog.Any("error", err))
		writeError(w, logger, http.StatusInternalServerError, CategoryServerError, "internal server error")
	}
}

// decodeAndValidate читает JSON-тело и проверяет теги validate.
// При ошибке ответ уже записан и возвращается false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("invalid request: decoding error", slog.Any("error", err))
		writeError(w, logger, http.StatusBadRequest, CategoryInvalidInput, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		logger.Warn("invalid request: validation error", slog.Any("error", err))
		writeError(w, logger, http.StatusBadRequest, CategoryInvalidInput, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fe.Field() + " is invalid: " + fe.Tag()
	}
	return "validation error"
}
