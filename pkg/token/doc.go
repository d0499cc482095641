// Package token provides opaque token generation.
//
// Tokens are drawn from crypto/rand and encoded as Base64 RawURL so they
// can travel in cookies and URLs without escaping. A default token carries
// 32 bytes (256 bits) of entropy, 43 characters once encoded.
package token
