// Package credential provides reversible keyed obfuscation for the persisted
// session backup.
//
// # What this is
//
// A deterrent against casual inspection of the storage backend: the encoded
// form is a keyed XOR keystream over the payload plus a short integrity tag,
// wrapped in base64url. Decode of any malformed or foreign-key input fails
// soft to the empty string.
//
// # What this is NOT
//
// This is not encryption and must never be documented or relied upon as a
// confidentiality boundary. Anything able to execute code alongside the
// consumer can recover the key. Real secrecy requirements belong on the
// server side of the wire.
package credential
