package http

import (
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strings"
)

// securityHeaders are set on every page and API response. Chart.js and htmx
// are loaded from unpkg.
var securityHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Content-Security-Policy": "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'",
	"Referrer-Policy":         "strict-origin-when-cross-origin",
}

// Peers allowed to report the client address through forwarding headers:
// loopback and the private ranges a reverse proxy runs in.
var trustedProxies = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
}

func trustedProxy(addr netip.Addr) bool {
	addr = addr.Unmap()
	return slices.ContainsFunc(trustedProxies, func(p netip.Prefix) bool { return p.Contains(addr) })
}

// clientIP returns the peer address, or the first X-Forwarded-For entry
// (then X-Real-IP) when the peer is a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !trustedProxy(peer) {
		return host
	}

	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
		return addr.String()
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}
	return host
}

const maxRequestURI = 2048

// scanPaths are fragments scanners request when looking for software this
// server does not run.
var scanPaths = []string{
	".env", ".git", ".ssh", ".php", "wp-admin", "wp-login",
	"phpmyadmin", "cgi-bin", "etc/passwd", "cmd.exe",
}

// injectionMarkers never appear in a month selector or a prediction form.
var injectionMarkers = []string{
	"../", "..\\", "<script", "javascript:", "union select", "eval(", "\x00",
}

var scannerAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab",
}

// suspicion returns why r looks like a scan or an injection attempt, or ""
// for ordinary dashboard traffic.
func suspicion(r *http.Request) string {
	if !slices.Contains(formMethods, r.Method) {
		return "method " + r.Method
	}
	if len(r.URL.RequestURI()) > maxRequestURI {
		return "oversized url"
	}

	path := strings.ToLower(r.URL.Path)
	for _, p := range scanPaths {
		if strings.Contains(path, p) {
			return "scan " + p
		}
	}

	query := r.URL.RawQuery
	if q, err := url.QueryUnescape(query); err == nil {
		query = q
	}
	target := path + "?" + strings.ToLower(query)
	for _, m := range injectionMarkers {
		if strings.Contains(target, m) {
			return "injection marker"
		}
	}

	agent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(agent, a) {
			return "scanner " + a
		}
	}

	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return "forwarding chain"
	}
	return ""
}
