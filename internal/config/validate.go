package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFeed(); err != nil {
		return err
	}
	if strings.ContainsAny(c.Render.ContainerID, " \t\n") {
		return fmt.Errorf("%w: render.container_id must not contain whitespace", ErrInvalid)
	}
	if err := validateListen("serve.listen", c.Serve.Listen); err != nil {
		return err
	}
	if err := validateListen("relay.listen", c.Relay.Listen); err != nil {
		return err
	}
	if c.Logging.RetentionCount < 0 {
		return fmt.Errorf("%w: logging.retention_count must not be negative", ErrInvalid)
	}
	return nil
}

func (c *Config) validateFeed() error {
	u, err := url.Parse(c.Feed.Address)
	if err != nil {
		return fmt.Errorf("%w: feed.address: %v", ErrInvalid, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: feed.address must use ws:// or wss://, got %q", ErrInvalid, c.Feed.Address)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: feed.address has no host", ErrInvalid)
	}
	if c.Feed.Origin != "" {
		o, err := url.Parse(c.Feed.Origin)
		if err != nil || (o.Scheme != "http" && o.Scheme != "https") || o.Host == "" {
			return fmt.Errorf("%w: feed.origin must be an http(s) origin, got %q", ErrInvalid, c.Feed.Origin)
		}
	}
	if c.Feed.HandshakeTimeoutSeconds < 0 {
		return fmt.Errorf("%w: feed.handshake_timeout_seconds must not be negative", ErrInvalid)
	}
	return nil
}

func validateListen(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: %s must be set", ErrInvalid, field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, field, err)
	}
	return nil
}
