// Package redistest provides an in-process fake Redis server that understands
// the inline PING, ECHO and AUTH commands, for tests.
package redistest

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Config controls how the fake server answers.
type Config struct {
	// Password is the requirepass value for one-argument AUTH.
	// When Password is empty and Users is nil the server requires no auth.
	Password string
	// Users maps ACL usernames to their password for two-argument AUTH.
	Users map[string]string
	// NoACL answers two-argument AUTH with the pre-6.0 arity error.
	NoACL bool
	// PingReply, when set, is sent verbatim in reply to PING.
	PingReply string
	// DropConns closes this many connections right after they send their
	// first command, without replying.
	DropConns int
}

// Attempt is one AUTH command seen by the server.
type Attempt struct {
	Username string
	Password string
	OK       bool
}

// Server is a running fake server.
type Server struct {
	cfg Config
	ln  net.Listener

	mu       sync.Mutex
	attempts []Attempt
	conns    int
	dropped  int

	wg sync.WaitGroup
}

// Start listens on 127.0.0.1 and serves until the test ends.
func Start(t testing.TB, cfg Config) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	s := &Server{cfg: cfg, ln: ln}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Port returns the listening port as a string.
func (s *Server) Port() string {
	_, port, _ := net.SplitHostPort(s.Addr())
	return port
}

// Close stops accepting connections.
func (s *Server) Close() {
	s.ln.Close()
	s.wg.Wait()
}

// Attempts returns a copy of every AUTH command received so far.
func (s *Server) Attempts() []Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Attempt(nil), s.attempts...)
}

// Conns returns the number of accepted connections.
func (s *Server) Conns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns++
		s.mu.Unlock()
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	authed := s.cfg.Password == "" && s.cfg.Users == nil

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}

		s.mu.Lock()
		drop := s.dropped < s.cfg.DropConns
		if drop {
			s.dropped++
		}
		s.mu.Unlock()
		if drop {
			return
		}

		args := SplitArgs(strings.TrimRight(line, "\r\n"))
		if len(args) == 0 {
			continue
		}

		var reply string
		switch strings.ToUpper(args[0]) {
		case "PING":
			switch {
			case s.cfg.PingReply != "":
				reply = s.cfg.PingReply
			case !authed:
				reply = "-NOAUTH Authentication required.\r\n"
			default:
				reply = "+PONG\r\n"
			}
		case "ECHO":
			if !authed {
				reply = "-NOAUTH Authentication required.\r\n"
			} else if len(args) == 2 {
				reply = "$" + strconv.Itoa(len(args[1])) + "\r\n" + args[1] + "\r\n"
			} else {
				reply = "-ERR wrong number of arguments for 'echo' command\r\n"
			}
		case "AUTH":
			var ok bool
			reply, ok = s.auth(args[1:])
			if ok {
				authed = true
			}
		default:
			reply = "-ERR unknown command '" + args[0] + "'\r\n"
		}

		if _, err := conn.Write([]byte(reply)); err != nil {
			return
		}
	}
}

func (s *Server) auth(args []string) (string, bool) {
	var a Attempt
	switch len(args) {
	case 1:
		a.Password = args[0]
		a.OK = s.cfg.Password != "" && args[0] == s.cfg.Password
	case 2:
		if s.cfg.NoACL {
			return "-ERR wrong number of arguments for 'auth' command\r\n", false
		}
		a.Username, a.Password = args[0], args[1]
		pw, exists := s.cfg.Users[args[0]]
		a.OK = exists && pw == args[1]
	default:
		return "-ERR wrong number of arguments for 'auth' command\r\n", false
	}

	s.mu.Lock()
	s.attempts = append(s.attempts, a)
	s.mu.Unlock()

	if a.OK {
		return "+OK\r\n", true
	}
	if s.cfg.Password == "" && s.cfg.Users == nil {
		return "-ERR AUTH <password> called without any password configured for the default user.\r\n", false
	}
	return "-WRONGPASS invalid username-password pair or user is disabled.\r\n", false
}

// SplitArgs splits an inline command line the way Redis does for single and
// double quoted arguments. Inside single quotes only \' is an escape.
func SplitArgs(line string) []string {
	var (
		args []string
		cur  strings.Builder
		in   bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			if in {
				args = append(args, cur.String())
				cur.Reset()
				in = false
			}
		case c == '\'' || c == '"':
			in = true
			quote := c
			for i++; i < len(line) && line[i] != quote; i++ {
				if line[i] == '\\' && i+1 < len(line) && line[i+1] == quote {
					i++
				}
				cur.WriteByte(line[i])
			}
		default:
			in = true
			cur.WriteByte(c)
		}
	}
	if in {
		args = append(args, cur.String())
	}
	return args
}
