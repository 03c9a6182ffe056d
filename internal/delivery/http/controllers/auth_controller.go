package controllers

import (
	"log/slog"
	"net/http"

	h "calendasync/internal/delivery/http/helpers"
	"calendasync/internal/domain"
)

// CredentialsRequest is the request body for POST /auth/signup and POST /auth/login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator. Format rules are applied by the service.
func (c CredentialsRequest) Validate() error {
	return h.Required("email", c.Email, "password", c.Password)
}

// EmailRequest is the request body for POST /auth/otp and POST /auth/reset-password.
type EmailRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (e EmailRequest) Validate() error {
	return h.Required("email", e.Email)
}

// VerifyCodeRequest is the request body for POST /auth/otp/verify.
type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Validate implements Validator.
func (v VerifyCodeRequest) Validate() error {
	return h.Required("email", v.Email, "code", v.Code)
}

// ConfirmResetRequest is the request body for POST /auth/reset-password/confirm.
type ConfirmResetRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (c ConfirmResetRequest) Validate() error {
	return h.Required("email", c.Email, "code", c.Code, "password", c.Password)
}

// SessionSuccessResponse is the success envelope for login and code verification (200).
type SessionSuccessResponse struct {
	Data  *domain.Session `json:"data"`
	Error *h.APIError     `json:"error"`
}

// UserSuccessResponse is the success envelope for endpoints returning a user.
type UserSuccessResponse struct {
	Data  *domain.User `json:"data"`
	Error *h.APIError  `json:"error"`
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

// SignUp godoc
// @Summary Sign up a new user
// @Description Create an account. The password needs 8+ characters with upper, lower, digit and one of @$!%*?&.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body CredentialsRequest true "Sign-up data"
// @Success 201 {object} controllers.UserSuccessResponse "data contains the created user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, error.fields lists violations"
// @Failure 409 {object} helpers.APIResponse "error.code: email_taken"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/signup [post]
func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, user)
}

// Login godoc
// @Summary Log in
// @Description Authenticate with email and password. Returns a bearer token and the user.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body CredentialsRequest true "Login credentials"
// @Success 200 {object} controllers.SessionSuccessResponse "data contains token and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: invalid_credentials"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	sess, err := c.Service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, sess)
}

// RequestOTP godoc
// @Summary Email a sign-in code
// @Description Sends a 6-digit single-use code. Always 202 for a well-formed address, registered or not.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Account email"
// @Success 202 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/otp [post]
func (c *AuthController) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.RequestOTP(r.Context(), req.Email); err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusAccepted, nil)
}

// VerifyOTP godoc
// @Summary Sign in with an emailed code
// @Tags auth
// @Accept json
// @Produce json
// @Param body body VerifyCodeRequest true "Email and code"
// @Success 200 {object} controllers.SessionSuccessResponse "data contains token and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or invalid_code"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/otp/verify [post]
func (c *AuthController) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	sess, err := c.Service.VerifyOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, sess)
}

// ResetPassword godoc
// @Summary Email a password recovery code
// @Tags auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Account email"
// @Success 202 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/reset-password [post]
func (c *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.ResetPassword(r.Context(), req.Email); err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusAccepted, nil)
}

// ConfirmPasswordReset godoc
// @Summary Set a new password with a recovery code
// @Tags auth
// @Accept json
// @Produce json
// @Param body body ConfirmResetRequest true "Email, code and new password"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or invalid_code"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/reset-password/confirm [post]
func (c *AuthController) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ConfirmResetRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.ConfirmPasswordReset(r.Context(), req.Email, req.Code, req.Password); err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, nil)
}
