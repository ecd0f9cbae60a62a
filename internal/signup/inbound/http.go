package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/gosignup/internal/pkg/router"
	"github.com/shandysiswandi/gosignup/internal/signup/usecase"
)

type uc interface {
	Signup(ctx context.Context, in usecase.SignupInput) (*usecase.SignupOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)

	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error
	Me(ctx context.Context) (*usecase.MeOutput, error)
}

// PublicEndpoints are the routes served without an authenticated identity.
var PublicEndpoints = map[string][]string{
	http.MethodPost: {
		"/api/v1/signup",
		"/api/v1/signup/verify",
		"/api/v1/login",
		"/api/v1/logout",
	},
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/signup", end.Signup)
	r.POST("/api/v1/signup/verify", end.SignupVerify)

	r.POST("/api/v1/login", end.Login)
	r.POST("/api/v1/logout", end.Logout)

	r.GET("/api/v1/me", end.Me) // need authenticated
}
