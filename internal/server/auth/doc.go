// Package auth implements the credential primitives of the server: the salted
// chained SHA-256 password digest and the three-segment HS256 session token
// (base64(header).base64(payload).base64(signature)).
//
// HMAC computation and verification are delegated to golang-jwt's HS256
// signing method; segments use standard padded base64 rather than the
// URL-safe alphabet of RFC 7519, so tokens are not interchangeable with
// generic JWT libraries.
package auth
