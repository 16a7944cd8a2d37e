package api

import (
	"errors"
	"net/http"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
)

func TestMapAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectCode int
	}{
		{"input invalid maps to 400", apperrors.New(apperrors.KindInputInvalid, "bad input"), http.StatusBadRequest},
		{"state conflict maps to 409", apperrors.New(apperrors.KindStateConflict, "wrong state"), http.StatusConflict},
		{"index schema conflict maps to 409", apperrors.New(apperrors.KindIndexSchemaConflict, "dim mismatch"), http.StatusConflict},
		{"extract empty maps to 422", apperrors.New(apperrors.KindExtractEmpty, "no text"), http.StatusUnprocessableEntity},
		{"provider auth maps to 502", apperrors.New(apperrors.KindProviderAuth, "bad key"), http.StatusBadGateway},
		{"provider bad request maps to 502", apperrors.New(apperrors.KindProviderBadRequest, "malformed"), http.StatusBadGateway},
		{"provider rate limited maps to 503", apperrors.New(apperrors.KindProviderRateLimited, "slow down"), http.StatusServiceUnavailable},
		{"provider timeout maps to 503", apperrors.New(apperrors.KindProviderTimeout, "timed out"), http.StatusServiceUnavailable},
		{"provider unavailable maps to 503", apperrors.New(apperrors.KindProviderUnavailable, "down"), http.StatusServiceUnavailable},
		{"unknown error maps to 500", errors.New("something unexpected happened"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := mapAppError(tt.err)
			assert.IsType(t, &echo.HTTPError{}, he)
			assert.Equal(t, tt.expectCode, he.Code)
		})
	}
}

func TestMapAppError_MasksSecretsInMessage(t *testing.T) {
	err := apperrors.New(apperrors.KindProviderAuth, "request failed: api_key=sk-abcdefghijklmnopqrstuvwx")
	he := mapAppError(err)
	assert.NotContains(t, he.Error(), "sk-abcdefghijklmnopqrstuvwx")
}

func TestMapAppError_UnknownErrorIsOpaque(t *testing.T) {
	he := mapAppError(errors.New("leaked internal detail"))
	assert.Equal(t, "internal server error", he.Message)
}
