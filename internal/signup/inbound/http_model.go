package inbound

import (
	"time"

	"github.com/shandysiswandi/gosignup/internal/signup/entity"
)

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type SignupResponse struct {
	State     string    `json:"state"`
	EmailSent bool      `json:"email_sent"`
	SMSSent   bool      `json:"sms_sent"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (r SignupResponse) Message() string {
	switch {
	case r.EmailSent && r.SMSSent:
		return "OTPs sent to your email and phone. Please verify both to complete signup."
	case r.EmailSent:
		return "OTP sent to your email. The SMS could not be delivered."
	case r.SMSSent:
		return "OTP sent to your phone. The email could not be delivered."
	default:
		return "Signup started but no OTP could be delivered. Please signup again."
	}
}

type SignupVerifyRequest struct {
	EmailCode string `json:"email_code"`
	PhoneCode string `json:"phone_code"`
}

type UserResponse struct {
	ID        int64     `json:"id,string"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *entity.User) UserResponse {
	if u == nil {
		return UserResponse{}
	}

	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

type SignupVerifyResponse struct {
	Outcome     string       `json:"outcome"`
	RedirectTo  string       `json:"redirect_to"`
	AccessToken string       `json:"access_token,omitempty"`
	User        UserResponse `json:"user"`
}

func (SignupVerifyResponse) Message() string {
	return "Signup completed successfully."
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	RedirectTo  string       `json:"redirect_to"`
	AccessToken string       `json:"access_token,omitempty"`
	User        UserResponse `json:"user"`
}

func (LoginResponse) Message() string {
	return "Login successful."
}

type MeResponse struct {
	ID       int64  `json:"id,string"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (MeResponse) Message() string {
	return "Current user."
}
