package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la aplicación.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Error original (causa), útil para logs, no se expone al cliente
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// FromError intenta convertir un error genérico en un AppError.
// Si no es un AppError, devuelve un error interno genérico conservando la causa.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail agrega detalles adicionales al error (útil para validaciones).
// Devuelve una COPIA del error para no mutar las variables globales base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause agrega el error original (causa). Devuelve una COPIA del error.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

// 400 Bad Request - Errores de cliente / validación
var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "La solicitud contiene sintaxis inválida o parámetros faltantes.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El cuerpo de la solicitud no es un JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Faltan campos requeridos en la solicitud.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidEmail = &AppError{
		Code:       "INVALID_EMAIL",
		Message:    "El email no tiene un formato válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrWeakPassword = &AppError{
		Code:       "WEAK_PASSWORD",
		Message:    "La contraseña no cumple la política de seguridad.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidToken = &AppError{
		Code:       "INVALID_TOKEN",
		Message:    "El token es inválido o ya fue utilizado.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrTokenExpired = &AppError{
		Code:       "TOKEN_EXPIRED",
		Message:    "El token ha expirado. Solicitá uno nuevo.",
		HTTPStatus: http.StatusBadRequest,
	}
)

// 401 Unauthorized - Errores de autenticación
var (
	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Las credenciales proporcionadas son inválidas.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidMFACode = &AppError{
		Code:       "INVALID_MFA_CODE",
		Message:    "El código de verificación es inválido o expiró.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidRecoveryCode = &AppError{
		Code:       "INVALID_RECOVERY_CODE",
		Message:    "El código de respaldo es inválido.",
		HTTPStatus: http.StatusUnauthorized,
	}
)

// 403 Forbidden - Estado de cuenta
var (
	ErrAccountNotVerified = &AppError{
		Code:       "ACCOUNT_NOT_VERIFIED",
		Message:    "La cuenta no está verificada. Revisá tu email.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrMFANotConfigured = &AppError{
		Code:       "MFA_NOT_CONFIGURED",
		Message:    "La cuenta no tiene segundo factor configurado.",
		HTTPStatus: http.StatusForbidden,
	}
)

// 404 Not Found
var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "El recurso solicitado no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrAccountNotFound = &AppError{
		Code:       "ACCOUNT_NOT_FOUND",
		Message:    "No existe una cuenta registrada con ese email.",
		HTTPStatus: http.StatusNotFound,
	}
)

// 405 Method Not Allowed
var ErrMethodNotAllowed = &AppError{
	Code:       "METHOD_NOT_ALLOWED",
	Message:    "Método HTTP no permitido para este recurso.",
	HTTPStatus: http.StatusMethodNotAllowed,
}

// 409 Conflict
var ErrEmailTaken = &AppError{
	Code:       "EMAIL_TAKEN",
	Message:    "Ya existe una cuenta registrada con ese email.",
	HTTPStatus: http.StatusConflict,
}

// 429 Too Many Requests
var ErrTooManyRequests = &AppError{
	Code:       "TOO_MANY_REQUESTS",
	Message:    "Demasiados intentos. Esperá un momento antes de reintentar.",
	HTTPStatus: http.StatusTooManyRequests,
}

// 500 / 502 - Errores de servidor
var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocurrió un error inesperado. Intentá de nuevo más tarde.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrEmailDelivery = &AppError{
		Code:       "EMAIL_DELIVERY_FAILED",
		Message:    "No se pudo enviar el email. Intentá de nuevo más tarde.",
		HTTPStatus: http.StatusBadGateway,
	}
)
