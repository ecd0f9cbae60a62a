// Package encrypt seals small secrets with AES-256-GCM. Every ciphertext is
// bound to a Scope through the GCM additional data, so a value sealed for one
// session or purpose cannot be opened under another.
package encrypt
