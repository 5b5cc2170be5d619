// Package protocol builds the inline Redis commands redisbrute sends and
// classifies the short status replies it gets back.
package protocol

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Conn is a request/response exchange with one target.
type Conn interface {
	SendAndReceive(ctx context.Context, payload []byte) ([]byte, error)
}

const (
	prefixNoAuth     = "-NOAUTH"
	prefixPong       = "+PONG"
	prefixEchoHello  = "$5\r\nHELLO"
	prefixWrongArity = "-ERR wrong number of arguments"

	statusOK = '+'
)

var (
	pingCommand = []byte("PING\r\n")
	echoCommand = []byte("ECHO HELLO\r\n")
)

// AuthCommand builds the single-argument AUTH for an already escaped password.
func AuthCommand(escapedPassword string) []byte {
	return []byte(fmt.Sprintf("AUTH '%s'\r\n", escapedPassword))
}

// ACLAuthCommand builds the two-argument AUTH for an escaped username and password.
func ACLAuthCommand(escapedUser, escapedPassword string) []byte {
	return []byte(fmt.Sprintf("AUTH '%s' '%s'\r\n", escapedUser, escapedPassword))
}

// IsOK reports whether reply starts with the positive status marker.
func IsOK(reply []byte) bool {
	return len(reply) > 0 && reply[0] == statusOK
}

// IsWrongArity reports whether reply is the wrong-number-of-arguments error.
func IsWrongArity(reply []byte) bool {
	return bytes.HasPrefix(reply, []byte(prefixWrongArity))
}

// Summarize renders the first line of a reply for log output. Non-UTF-8
// bytes are dropped and long lines are cut.
func Summarize(reply []byte) string {
	s := strings.ToValidUTF8(string(reply), "")
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	if len(s) > 64 {
		s = s[:61] + "..."
	}
	if s == "" && len(reply) > 0 {
		return fmt.Sprintf("<%d non-text bytes>", len(reply))
	}
	return s
}

func isText(reply []byte) bool {
	return utf8.Valid(reply)
}
