// Package session is the server-side session carrier. A signed cookie names
// the session; named slots hold opaque values in a Store (memory or Redis).
package session
