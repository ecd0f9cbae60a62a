// Package jwt issues and verifies HS512 access tokens for authenticated users
// and carries verified claims through the request context.
package jwt
