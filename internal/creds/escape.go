// Package creds holds the credential material shared by the workers of one
// target: the password work queue, its producer, and the username pool.
package creds

import "strings"

// Escape prefixes every single quote with a backslash so the value can be
// embedded in a single-quoted inline command argument.
func Escape(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// Candidate is one password taken from the wordlist.
type Candidate struct {
	Plain   string // as read from the wordlist
	Escaped string // Plain passed through Escape once
}

// NewCandidate builds a Candidate from a raw wordlist line.
func NewCandidate(plain string) Candidate {
	return Candidate{Plain: plain, Escaped: Escape(plain)}
}
