package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// EnvConfigPath names the environment variable that points at the config file.
const EnvConfigPath = "AGENTBRIDGE_CONFIG"

// DefaultPath returns $AGENTBRIDGE_CONFIG or ~/.agentbridge/config.json.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(ExpandHome("~/.agentbridge"), "config.json")
}

// Load reads path over the defaults. A missing file is not an error: the
// defaults plus environment overrides are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := json5.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := cfg.openSecrets(); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnvOverrides lets deployment environments override the file.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	envStr("AWS_REGION", &c.AWS.Region)
	envStr("AWS_PROFILE", &c.AWS.Profile)
	envStr("BEDROCK_MODEL_ID", &c.Agent.ModelID)
	envInt("WIDTH", &c.Display.Width)
	envInt("HEIGHT", &c.Display.Height)
	envStr("DISPLAY", &c.Display.Display)
	envStr("BEDROCK_AGENT_ID", &c.BedrockAgent.AgentID)
	envStr("BEDROCK_AGENT_ALIAS_ID", &c.BedrockAgent.AliasID)
	envBool("ENABLE_BEDROCK_AGENT_TRACE", &c.BedrockAgent.EnableTrace)
	envStr("RESTAURANT_API_BASE_URL", &c.ActionGroups.RestaurantAPIBaseURL)
	// Deployments that prefix secrets by provider name use the doubled key.
	envStr("SERPAPI_SERPAPI_API_KEY", &c.ActionGroups.SerpAPIKey)
	envStr("SERPAPI_API_KEY", &c.ActionGroups.SerpAPIKey)
	envStr("AGENTBRIDGE_TOKEN", &c.Server.Token)
}

// DisplayNumber extracts N from an X display name such as ":N" or "host:N.S".
// Malformed names yield 0.
func DisplayNumber(display string) int {
	i := strings.LastIndex(display, ":")
	if i < 0 {
		return 0
	}
	num := display[i+1:]
	if dot := strings.Index(num, "."); dot >= 0 {
		num = num[:dot]
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
