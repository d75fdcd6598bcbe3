package opcua

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config captures the session details and history window of a historian read.
type Config struct {
	Endpoint         string        `yaml:"endpoint"`
	Username         string        `yaml:"username"`
	Password         string        `yaml:"password"`
	SecurityMode     string        `yaml:"security_mode"`
	SecurityPolicy   string        `yaml:"security_policy"`
	ApplicationName  string        `yaml:"application_name"`
	Timeout          time.Duration `yaml:"timeout"`
	Start            time.Time     `yaml:"start"`
	End              time.Time     `yaml:"end"`
	Lookback         time.Duration `yaml:"lookback"`
	MaxValuesPerRead uint32        `yaml:"max_values_per_read"`
	Nodes            []NodeConfig  `yaml:"nodes"`
}

// NodeConfig binds a historized node to the signal name its samples carry.
type NodeConfig struct {
	NodeID string `yaml:"node_id"`
	Signal string `yaml:"signal_name"`
}

func (c *Config) ApplyDefaults() {
	if c.SecurityMode == "" {
		c.SecurityMode = "None"
	}
	if c.SecurityPolicy == "" {
		c.SecurityPolicy = "None"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "SignalGuard"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Lookback <= 0 {
		c.Lookback = time.Hour
	}
	if c.MaxValuesPerRead == 0 {
		c.MaxValuesPerRead = 1000
	}
	for i := range c.Nodes {
		if c.Nodes[i].Signal == "" {
			c.Nodes[i].Signal = c.Nodes[i].NodeID
		}
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if len(c.Nodes) == 0 {
		return errors.New("at least one node must be configured")
	}
	seen := make(map[string]struct{}, len(c.Nodes))
	for _, n := range c.Nodes {
		if strings.TrimSpace(n.NodeID) == "" {
			return errors.New("node_id is required")
		}
		if _, dup := seen[n.Signal]; dup {
			return fmt.Errorf("signal %q is mapped by more than one node", n.Signal)
		}
		seen[n.Signal] = struct{}{}
	}
	if !c.Start.IsZero() && !c.End.IsZero() && !c.End.After(c.Start) {
		return fmt.Errorf("end %s must be after start %s", c.End.Format(time.RFC3339), c.Start.Format(time.RFC3339))
	}
	return nil
}

// Window resolves the read interval. A missing end means now; a missing
// start means end minus Lookback.
func (c *Config) Window(now time.Time) (time.Time, time.Time) {
	end := c.End
	if end.IsZero() {
		end = now
	}
	start := c.Start
	if start.IsZero() {
		start = end.Add(-c.Lookback)
	}
	return start, end
}

func normalizeSecurityMode(mode string) string {
	switch strings.ToLower(mode) {
	case "sign":
		return "Sign"
	case "signandencrypt", "signencrypt", "sign_and_encrypt", "sign+encrypt":
		return "SignAndEncrypt"
	default:
		return "None"
	}
}

func normalizeSecurityPolicy(policy string) string {
	if policy == "" {
		return "None"
	}
	return policy
}
