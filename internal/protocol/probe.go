package protocol

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrACLUnsupported is returned when the target rejects two-argument AUTH,
// which means it predates per-user authentication.
var ErrACLUnsupported = errors.New("target does not support ACL authentication")

// ProbeKind selects the diagnostic command used to detect authentication.
type ProbeKind string

const (
	ProbePing ProbeKind = "ping"
	ProbeEcho ProbeKind = "echo"
)

// ParseProbeKind accepts "ping" or "echo", case-insensitively. Empty means ping.
func ParseProbeKind(s string) (ProbeKind, error) {
	switch ProbeKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProbePing:
		return ProbePing, nil
	case ProbeEcho:
		return ProbeEcho, nil
	}
	return "", fmt.Errorf("unknown probe %q (want ping or echo)", s)
}

// AuthStatus is the outcome of the diagnostic probe.
type AuthStatus int

const (
	StatusAmbiguous AuthStatus = iota
	StatusNoAuth
	StatusAuthRequired
)

func (s AuthStatus) String() string {
	switch s {
	case StatusNoAuth:
		return "no-auth"
	case StatusAuthRequired:
		return "auth-required"
	default:
		return "ambiguous"
	}
}

func (k ProbeKind) command() []byte {
	if k == ProbeEcho {
		return echoCommand
	}
	return pingCommand
}

// Classify maps a probe reply to an AuthStatus. Replies that are not valid
// text are ambiguous.
func Classify(kind ProbeKind, reply []byte) AuthStatus {
	if !isText(reply) {
		return StatusAmbiguous
	}
	if bytes.HasPrefix(reply, []byte(prefixNoAuth)) {
		return StatusAuthRequired
	}
	switch kind {
	case ProbeEcho:
		if bytes.HasPrefix(reply, []byte(prefixEchoHello)) {
			return StatusNoAuth
		}
	default:
		if bytes.HasPrefix(reply, []byte(prefixPong)) {
			return StatusNoAuth
		}
	}
	return StatusAmbiguous
}

// ProbeAuth sends the diagnostic command and classifies the reply.
// The raw reply is returned for reporting.
func ProbeAuth(ctx context.Context, conn Conn, kind ProbeKind) (AuthStatus, []byte, error) {
	reply, err := conn.SendAndReceive(ctx, kind.command())
	if err != nil {
		return StatusAmbiguous, nil, fmt.Errorf("auth probe: %w", err)
	}
	return Classify(kind, reply), reply, nil
}

// CheckACLSupport sends a two-argument AUTH with random credentials. A
// wrong-arity reply means the target cannot be attacked in ACL mode.
func CheckACLSupport(ctx context.Context, conn Conn) error {
	cmd := ACLAuthCommand(uuid.NewString(), uuid.NewString())
	reply, err := conn.SendAndReceive(ctx, cmd)
	if err != nil {
		return fmt.Errorf("acl probe: %w", err)
	}
	if IsWrongArity(reply) {
		return ErrACLUnsupported
	}
	return nil
}
