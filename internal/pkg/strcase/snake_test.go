package strcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"Email":      "email",
		"EmailCode":  "email_code",
		"PhoneCode":  "phone_code",
		"UserID":     "user_id",
		"HTTPServer": "http_server",
		"Code6Digit": "code6_digit",
	}

	for in, want := range tests {
		assert.Equal(t, want, ToLowerSnake(in), in)
	}
}
