package inbound

import (
	"github.com/shandysiswandi/gosignup/internal/pkg/router"
	"github.com/shandysiswandi/gosignup/internal/signup/usecase"
)

// HTTPEndpoint exposes the signup, verification and session endpoints.
type HTTPEndpoint struct {
	uc uc
}

// Signup starts a signup and sends an OTP to both email and phone.
// @Summary Start signup
// @Description Validates the details, issues an email OTP and an SMS OTP and keeps the draft in the session.
// @Tags Signup
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup payload"
// @Success 200 {object} router.successResponse{data=SignupResponse} "OTPs issued"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Username or email already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 502 {object} router.errorResponse "Verification email could not be sent"
// @Router /api/v1/signup [post]
func (h *HTTPEndpoint) Signup(r *router.Request) (any, error) {
	var req SignupRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Signup(r.Context(), usecase.SignupInput{
		SessionID: r.SessionID(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
	})
	if err != nil {
		return nil, err
	}

	return SignupResponse{
		State:     resp.State.String(),
		EmailSent: resp.EmailSent,
		SMSSent:   resp.SMSSent,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// SignupVerify checks both OTPs and creates the account.
// @Summary Verify signup OTPs
// @Description On success the account is created and the session is authenticated. Error bodies carry error.outcome (restart_required or retry_allowed) and error.state.
// @Tags Signup
// @Accept json
// @Produce json
// @Param request body SignupVerifyRequest true "OTP payload"
// @Success 200 {object} router.successResponse{data=SignupVerifyResponse} "Account created"
// @Failure 401 {object} router.errorResponse "OTP mismatch, retry allowed"
// @Failure 409 {object} router.errorResponse "Username or email already registered"
// @Failure 410 {object} router.errorResponse "Session lost or OTP expired, restart required"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/signup/verify [post]
func (h *HTTPEndpoint) SignupVerify(r *router.Request) (any, error) {
	var req SignupVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyInput{
		SessionID: r.SessionID(),
		EmailCode: req.EmailCode,
		PhoneCode: req.PhoneCode,
	})
	if err != nil {
		return nil, err
	}

	return SignupVerifyResponse{
		Outcome:     resp.Outcome.String(),
		RedirectTo:  resp.RedirectTo,
		AccessToken: resp.AccessToken,
		User:        newUserResponse(resp.User),
	}, nil
}

// Login authenticates with username or email and password.
// @Summary Login
// @Tags Session
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authenticated"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		SessionID:  r.SessionID(),
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		RedirectTo:  resp.RedirectTo,
		AccessToken: resp.AccessToken,
		User:        newUserResponse(resp.User),
	}, nil
}

// Logout removes the authenticated identity from the session.
// @Summary Logout
// @Tags Session
// @Success 204 "Logged out"
// @Router /api/v1/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{SessionID: r.SessionID()}); err != nil {
		return nil, err
	}

	return nil, nil
}

// Me returns the authenticated user.
// @Summary Current user
// @Tags Session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=MeResponse} "Current user"
// @Failure 401 {object} router.errorResponse "Unauthenticated"
// @Router /api/v1/me [get]
func (h *HTTPEndpoint) Me(r *router.Request) (any, error) {
	resp, err := h.uc.Me(r.Context())
	if err != nil {
		return nil, err
	}

	return MeResponse{ID: resp.UserID, Username: resp.Username, Email: resp.Email}, nil
}
