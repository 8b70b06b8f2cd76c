package postgres

import (
	"net"
	"net/url"
	"strconv"
)

type Config struct {
	Host     string `yaml:"host" mapstructure:"host" default:"localhost"`
	Port     int    `yaml:"port" mapstructure:"port" default:"5432"`
	Name     string `yaml:"name" mapstructure:"name" default:"postgres"`
	User     string `yaml:"user" mapstructure:"user" default:"root"`
	Password string `yaml:"password" mapstructure:"password" default:""`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode" default:"disable"`
}

// ConnectionURL
func (c *Config) ConnectionURL() *url.URL {
	pgURL := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		User:   url.UserPassword(c.User, c.Password),
		Path:   c.Name,
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q := pgURL.Query()
	q.Add("sslmode", sslMode)
	pgURL.RawQuery = q.Encode()

	return pgURL
}
