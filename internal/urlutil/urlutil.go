package urlutil

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strings"
)

// Normalize returns the canonical form of a posting URL: https when no scheme
// is given, lowercase host, clean path and no tracking query parameters. The
// fragment is kept because hash-routed boards ("#filter:...") render
// different content for it in the browser.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	u.Host = strings.ToLower(u.Host)
	u.Path = normalizePath(u.Path)
	u.RawPath = ""
	u.RawQuery = normalizeQuery(u.RawQuery)
	return u.String(), nil
}

// DedupKey identifies a posting regardless of scheme, fragment and a leading
// "www.".
func DedupKey(normalized string) string {
	u, err := url.Parse(normalized)
	if err != nil {
		return normalized
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	key := host + u.Path
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

// ReadURLs reads one URL per line. Blank lines and lines starting with '#'
// are skipped, as is anything after " #" on a line. Invalid URLs are logged
// and dropped; duplicates keep their first position.
func ReadURLs(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read urls: %w", err)
	}
	return Clean(lines), nil
}

// Clean normalizes and deduplicates raw entries using the same rules as
// ReadURLs.
func Clean(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = stripComment(line)
		if line == "" {
			continue
		}
		u, err := Normalize(line)
		if err != nil {
			slog.Warn("skipping invalid url", "input", line, "error", err)
			continue
		}
		key := DedupKey(u)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, u)
	}
	return out
}

func stripComment(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}
	if i := strings.Index(line, " #"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	clean := path.Clean(p)
	if clean == "." {
		return "/"
	}
	return clean
}

func normalizeQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	for key := range values {
		lk := strings.ToLower(key)
		if strings.HasPrefix(lk, "utm_") || lk == "gclid" || lk == "fbclid" {
			delete(values, key)
		}
	}
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	normalized := url.Values{}
	for _, k := range keys {
		normalized[k] = values[k]
	}
	return normalized.Encode()
}
