package targets

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/vulnverified/redisbrute/internal/engine"
)

const defaultLookupTimeout = 5 * time.Second

// Resolver fills Target.IP before a target is dialled.
type Resolver struct {
	// Nameserver is host or host:port. Empty uses the system resolver.
	Nameserver string
	Timeout    time.Duration
}

// Resolve returns t with IP set. IP literals are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, t engine.Target) (engine.Target, error) {
	if net.ParseIP(t.Host) != nil {
		t.IP = t.Host
		return t, nil
	}

	var (
		ip  string
		err error
	)
	if r.Nameserver == "" {
		ip, err = lookupSystem(ctx, t.Host)
	} else {
		ip, err = r.lookup(ctx, t.Host)
	}
	if err != nil {
		return t, err
	}
	t.IP = ip
	return t, nil
}

func lookupSystem(ctx context.Context, host string) (string, error) {
	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no addresses for %s", host)
	}
	return addrs[0], nil
}

// lookup asks the configured nameserver for A records, then AAAA.
func (r *Resolver) lookup(ctx context.Context, host string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	client := &dns.Client{Timeout: timeout}

	server := r.Nameserver
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}

	var rcode int
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(host), qtype)

		in, _, err := client.ExchangeContext(ctx, msg, server)
		if err != nil {
			return "", fmt.Errorf("query %s for %s: %w", server, host, err)
		}
		if in.Rcode != dns.RcodeSuccess {
			rcode = in.Rcode
			continue
		}
		for _, rr := range in.Answer {
			switch v := rr.(type) {
			case *dns.A:
				return v.A.String(), nil
			case *dns.AAAA:
				return v.AAAA.String(), nil
			}
		}
	}

	if rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("resolve %s: %s", host, dns.RcodeToString[rcode])
	}
	return "", fmt.Errorf("no A or AAAA records for %s", host)
}
