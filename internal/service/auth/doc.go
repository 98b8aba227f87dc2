// Package auth implements the credential primitives: bcrypt password
// hashing and verification, and HMAC-signed expiring session tokens.
package auth
