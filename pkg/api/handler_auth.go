package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// signupHandler handles POST /auth/signup.
func (s *Server) signupHandler(c *echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, apiKey, err := s.authn.Signup(c.Request().Context(), req.Email)
	if err != nil {
		return mapAppError(err)
	}

	return c.JSON(http.StatusCreated, &SignupResponse{
		UserID: user.ID,
		Email:  user.Email,
		APIKey: apiKey,
	})
}
