// Package codecx provides the fixed-width hex and padded base64 codecs used by
// the credential store and the token engine.
//
// All functions are pure and safe for concurrent use.
package codecx
