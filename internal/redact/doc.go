// Package redact scrubs secret-looking material from diff text before it is
// embedded in a model prompt.
//
// Detection is heuristic: regular expressions for well-known token shapes
// (cloud access keys, bearer tokens, JWTs, private key blocks) plus generic
// key/secret/password assignments. Matches are replaced with a fixed
// placeholder; surrounding diff structure is left intact.
package redact
