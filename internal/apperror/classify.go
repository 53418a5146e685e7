package apperror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Kind is the closed set of failure shapes the normalizer knows how to render.
type Kind int

const (
	KindUnknown Kind = iota
	KindOperational
	KindCast
	KindDuplicateKey
	KindValidation
	KindTokenInvalid
	KindTokenExpired
)

func (k Kind) String() string {
	switch k {
	case KindOperational:
		return "operational"
	case KindCast:
		return "cast"
	case KindDuplicateKey:
		return "duplicate_key"
	case KindValidation:
		return "validation"
	case KindTokenInvalid:
		return "token_invalid"
	case KindTokenExpired:
		return "token_expired"
	default:
		return "unknown"
	}
}

var tokenErrors = []error{
	jwt.ErrTokenMalformed,
	jwt.ErrTokenSignatureInvalid,
	jwt.ErrTokenUnverifiable,
	jwt.ErrTokenInvalidClaims,
	jwt.ErrTokenNotValidYet,
	jwt.ErrTokenUsedBeforeIssued,
	jwt.ErrTokenRequiredClaimMissing,
	jwt.ErrTokenInvalidIssuer,
	jwt.ErrTokenInvalidAudience,
	jwt.ErrTokenInvalidSubject,
	jwt.ErrTokenInvalidId,
	jwt.ErrInvalidKey,
	jwt.ErrInvalidKeyType,
	jwt.ErrHashUnavailable,
}

// Classify picks the first matching shape. Expiry is checked before the generic
// token arm because an expired token also carries ErrTokenInvalidClaims.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var castErr *CastError
	var dupErr *DuplicateKeyError
	var valErr *ValidationError
	var appErr *AppError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &castErr):
		return KindCast
	case errors.As(err, &dupErr):
		return KindDuplicateKey
	case errors.As(err, &valErr):
		return KindValidation
	case errors.Is(err, jwt.ErrTokenExpired):
		return KindTokenExpired
	case isTokenError(err):
		return KindTokenInvalid
	case errors.As(err, &appErr), errors.As(err, &fiberErr):
		return KindOperational
	}
	return KindUnknown
}

func isTokenError(err error) bool {
	for _, target := range tokenErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Translate converts a recognised failure into the operational error shown to
// clients. It returns nil for unknown failures.
func Translate(err error) *AppError {
	switch Classify(err) {
	case KindCast:
		var castErr *CastError
		errors.As(err, &castErr)
		return Newf(http.StatusBadRequest, "Invalid %s: %v", castErr.Path, castErr.Value)
	case KindDuplicateKey:
		var dupErr *DuplicateKeyError
		errors.As(err, &dupErr)
		return Newf(http.StatusBadRequest, "Duplicate field value: \"%v\". Please use another value.", dupErr.FirstValue())
	case KindValidation:
		var valErr *ValidationError
		errors.As(err, &valErr)
		return New(strings.Join(valErr.Messages(), ". "), http.StatusBadRequest)
	case KindTokenExpired:
		return New("Token expired! Please try to log in again.", http.StatusUnauthorized)
	case KindTokenInvalid:
		return New("Invalid token. Please try to log in again.", http.StatusUnauthorized)
	case KindOperational:
		var appErr *AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		var fiberErr *fiber.Error
		errors.As(err, &fiberErr)
		return &AppError{Message: fiberErr.Message, StatusCode: fiberErr.Code, Status: StatusFor(fiberErr.Code)}
	}
	return nil
}
