// Package engine orchestrates the per-target credential brute-force run.
package engine

import (
	"context"
	"net"
	"time"
)

// Sentinel fills username/password fields that do not apply.
const Sentinel = "n/a"

// TimestampFormat is the UTC layout used for FoundCredential timestamps.
const TimestampFormat = "2006-01-02 15:04:05"

// AuthMode is fixed per target from whether a username list was supplied.
type AuthMode string

const (
	ModeDefault AuthMode = "default"
	ModeACL     AuthMode = "acl"
)

// TargetStatus is the outcome of one target.
type TargetStatus string

const (
	StatusNoAuth       TargetStatus = "no-auth"
	StatusAuthRequired TargetStatus = "auth-required"
	StatusAmbiguous    TargetStatus = "ambiguous"
	StatusError        TargetStatus = "error"
)

// Target is one Redis endpoint.
type Target struct {
	Host string `json:"host"`
	Port string `json:"port"`
	// IP is the address actually dialled; it equals Host unless Host was resolved.
	IP string `json:"ip"`
}

// String returns host:port as the user wrote it.
func (t Target) String() string {
	return net.JoinHostPort(t.Host, t.Port)
}

// Addr returns the address to dial.
func (t Target) Addr() string {
	ip := t.IP
	if ip == "" {
		ip = t.Host
	}
	return net.JoinHostPort(ip, t.Port)
}

// FoundCredential is one confirmed authentication.
type FoundCredential struct {
	Timestamp string `json:"timestamp"`
	Host      string `json:"host"`
	IP        string `json:"ip"`
	Port      string `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// TargetResult is the outcome of processing one target.
type TargetResult struct {
	Target            Target       `json:"target"`
	Status            TargetStatus `json:"status"`
	Mode              AuthMode     `json:"mode"`
	Attempts          int64        `json:"attempts"`
	Found             int          `json:"found"`
	AllUsersRecovered bool         `json:"all_users_recovered,omitempty"`
	ProbeReply        string       `json:"probe_reply,omitempty"`
	Error             string       `json:"error,omitempty"`
	DurationSecs      float64      `json:"duration_secs"`
}

// RunResult is the top-level output of a run.
type RunResult struct {
	StartedAt    time.Time         `json:"started_at"`
	CompletedAt  time.Time         `json:"completed_at"`
	DurationSecs float64           `json:"duration_secs"`
	Interrupted  bool              `json:"interrupted,omitempty"`
	Targets      []TargetResult    `json:"targets"`
	Found        []FoundCredential `json:"found"`
	Summary      Summary           `json:"summary"`
}

// Summary provides aggregate counts for the run.
type Summary struct {
	Targets      int   `json:"targets"`
	NoAuth       int   `json:"no_auth"`
	AuthRequired int   `json:"auth_required"`
	Ambiguous    int   `json:"ambiguous"`
	Failed       int   `json:"failed"`
	Attempts     int64 `json:"attempts"`
	Found        int   `json:"found"`
}

// ResultSink receives every FoundCredential as soon as it is confirmed.
type ResultSink interface {
	Record(cred FoundCredential) error
}

// Conn is one Session to a target as seen by the engine.
type Conn interface {
	SendAndReceive(ctx context.Context, payload []byte) ([]byte, error)
	Close() error
}

// Dialer opens a Conn to addr.
type Dialer func(ctx context.Context, addr string) (Conn, error)

// TargetResolver turns a target host into the IP to dial.
type TargetResolver interface {
	Resolve(ctx context.Context, t Target) (Target, error)
}
