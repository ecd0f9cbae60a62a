// Package hash provides helpers for hashing and verifying secrets.
//
// Passwords are hashed with bcrypt or argon2id (selected by configuration)
// and only the hash is stored. HMACSHA256 signs short values such as session
// identifiers carried in cookies.
package hash
