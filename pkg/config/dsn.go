package config

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const defaultPostgresPort = 5432

// ParsedDatabaseURL is a postgres:// URL split into the libpq keywords it
// maps to. Query parameters other than sslmode land in Options.
type ParsedDatabaseURL struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Options  map[string]string
}

// ParseDatabaseURL accepts postgres:// and postgresql:// URLs. A missing port
// is 5432 and a missing sslmode is "disable".
func ParseDatabaseURL(rawURL string) (*ParsedDatabaseURL, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
	default:
		return nil, fmt.Errorf("invalid database URL scheme: %s (expected postgres or postgresql)", u.Scheme)
	}

	port := defaultPostgresPort
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return nil, fmt.Errorf("invalid port in database URL: %w", err)
		}
	}

	parsed := &ParsedDatabaseURL{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Database: strings.TrimPrefix(u.Path, "/"),
		SSLMode:  "disable",
		Options:  map[string]string{},
	}
	parsed.Password, _ = u.User.Password()

	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "sslmode" {
			parsed.SSLMode = values[0]
			continue
		}
		parsed.Options[key] = values[0]
	}
	return parsed, nil
}

// ToDSN renders the keyword/value form lib/pq expects. Options follow the
// fixed keywords in key order.
func (p *ParsedDatabaseURL) ToDSN() string {
	pairs := []string{
		"host=" + dsnValue(p.Host),
		"port=" + strconv.Itoa(p.Port),
		"user=" + dsnValue(p.User),
		"password=" + dsnValue(p.Password),
		"dbname=" + dsnValue(p.Database),
		"sslmode=" + dsnValue(p.SSLMode),
	}

	keys := make([]string, 0, len(p.Options))
	for k := range p.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = append(pairs, k+"="+dsnValue(p.Options[k]))
	}
	return strings.Join(pairs, " ")
}

// applyTo fills the discrete fields that still hold their defaults, so logs
// and validation see where the URL points.
func (p *ParsedDatabaseURL) applyTo(c *DatabaseConfig) {
	if c.Host == "" || c.Host == "localhost" {
		c.Host = p.Host
	}
	if c.Port == 0 || c.Port == defaultPostgresPort {
		c.Port = p.Port
	}
	if c.User == "" || c.User == "staffdesk" {
		c.User = p.User
	}
	if c.Password == "" || c.Password == "devpassword" {
		c.Password = p.Password
	}
	if c.Database == "" || c.Database == "staffdesk_attendance" {
		c.Database = p.Database
	}
	if c.SSLMode == "" || c.SSLMode == "disable" {
		c.SSLMode = p.SSLMode
	}
}

// dsnValue quotes a libpq value when it is empty or holds spaces, quotes or
// backslashes.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
