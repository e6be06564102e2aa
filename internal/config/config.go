// Package config loads the agentbridge configuration: a JSON5 file with
// environment overrides on top of built-in defaults.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/titanous/json5"
)

// Config is the root configuration.
type Config struct {
	AWS          AWSConfig          `json:"aws"`
	Agent        AgentConfig        `json:"agent"`
	Display      DisplayConfig      `json:"display"`
	Executor     ExecutorConfig     `json:"executor"`
	Screenshots  ScreenshotConfig   `json:"screenshots"`
	BedrockAgent BedrockAgentConfig `json:"bedrock_agent"`
	ActionGroups ActionGroupConfig  `json:"action_groups"`
	Server       ServerConfig       `json:"server"`
	Telemetry    TelemetryConfig    `json:"telemetry"`

	mu sync.RWMutex
}

// AWSConfig selects the region and credentials for the SDK. Static keys are
// optional; without them the default credential chain is used.
type AWSConfig struct {
	Region          string `json:"region"`
	Profile         string `json:"profile,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
	SessionToken    string `json:"session_token,omitempty"`
}

// AgentConfig drives the computer-use loop.
type AgentConfig struct {
	ModelID         string         `json:"model_id"`
	SystemPrompt    string         `json:"system_prompt,omitempty"`
	Delay           Duration       `json:"delay"`     // before every agent call, "0s" disables
	MaxTurns        int            `json:"max_turns"` // 0 = unlimited
	InjectionAction string         `json:"injection_action"`
	Pruning         *PruningConfig `json:"pruning,omitempty"`
}

// PruningConfig trims old screenshots and tool output from agent requests.
type PruningConfig struct {
	KeepScreenshots    int `json:"keep_screenshots,omitempty"`
	KeepLastAssistants int `json:"keep_last_assistants,omitempty"`
	SoftTrimMaxChars   int `json:"soft_trim_max_chars,omitempty"`
}

// DisplayConfig describes the screen the agent operates.
type DisplayConfig struct {
	Driver   string `json:"driver"` // "xdotool" or "browser"
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Display  string `json:"display"` // X display, e.g. ":0"
	Headless bool   `json:"headless,omitempty"`
	StartURL string `json:"start_url,omitempty"`
}

// ExecutorConfig tunes action execution.
type ExecutorConfig struct {
	ReportErrors   bool     `json:"report_errors"`
	ClickSettle    Duration `json:"click_settle"`
	ShellTimeout   Duration `json:"shell_timeout"`
	MaxShellOutput int      `json:"max_shell_output"`
	DenyPatterns   []string `json:"deny_patterns,omitempty"`
	ScrubOutput    bool     `json:"scrub_output"`
	ShellDisabled  bool     `json:"shell_disabled,omitempty"`
}

// ScreenshotConfig says where diagnostic screenshots are archived.
type ScreenshotConfig struct {
	Dir      string `json:"dir,omitempty"` // empty = no local copies
	S3Bucket string `json:"s3_bucket,omitempty"`
	S3Prefix string `json:"s3_prefix,omitempty"`
}

// BedrockAgentConfig identifies the agent behind the chat-bot fallback.
type BedrockAgentConfig struct {
	AgentID     string `json:"agent_id"`
	AliasID     string `json:"alias_id"`
	EnableTrace bool   `json:"enable_trace"`
}

// ActionGroupConfig configures the action-group backends.
type ActionGroupConfig struct {
	RestaurantAPIBaseURL string   `json:"restaurant_api_base_url"`
	SerpAPIKey           string   `json:"serpapi_api_key,omitempty"`
	SerpAPIURL           string   `json:"serpapi_url,omitempty"`
	GutendexURL          string   `json:"gutendex_url"`
	CacheTTL             Duration `json:"cache_ttl"`
	Timeout              Duration `json:"timeout"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr         string   `json:"addr"`
	Token        string   `json:"token,omitempty"` // empty = no auth
	RateLimitRPM int      `json:"rate_limit_rpm"`  // 0 = unlimited
	Burst        int      `json:"burst"`
	CORSOrigins  []string `json:"cors_origins,omitempty"` // "*" allows all
}

// TelemetryConfig enables OTLP trace export.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled"`
	Endpoint    string            `json:"endpoint,omitempty"`
	Protocol    string            `json:"protocol,omitempty"` // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`
	ServiceName string            `json:"service_name,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// Duration is a time.Duration written as "30s" in config files.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json5.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*d = Duration(time.Duration(val) * time.Second)
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AWS: AWSConfig{Region: "us-east-1"},
		Agent: AgentConfig{
			ModelID:         "us.anthropic.claude-3-5-sonnet-20241022-v2:0",
			Delay:           Duration(30 * time.Second),
			InjectionAction: "warn",
		},
		Display: DisplayConfig{
			Driver:  "xdotool",
			Width:   1024,
			Height:  768,
			Display: ":0",
		},
		Executor: ExecutorConfig{
			ReportErrors:   true,
			ClickSettle:    Duration(250 * time.Millisecond),
			ShellTimeout:   Duration(60 * time.Second),
			MaxShellOutput: 32 * 1024,
			ScrubOutput:    true,
		},
		Screenshots: ScreenshotConfig{Dir: "~/.agentbridge/logs"},
		ActionGroups: ActionGroupConfig{
			GutendexURL: "https://gutendex.com/books",
			SerpAPIURL:  "https://serpapi.com/search.json",
			CacheTTL:    Duration(10 * time.Minute),
			Timeout:     Duration(15 * time.Second),
		},
		Server: ServerConfig{
			Addr:         ":8080",
			RateLimitRPM: 120,
			Burst:        10,
		},
		Telemetry: TelemetryConfig{ServiceName: "agentbridge"},
	}
}

// Save writes cfg as indented JSON, creating parent directories.
func Save(path string, cfg *Config) error {
	cfg.mu.RLock()
	data, err := json.MarshalIndent(cfg, "", "  ")
	cfg.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Hash fingerprints the effective configuration.
func (c *Config) Hash() string {
	c.mu.RLock()
	data, _ := json.Marshal(c)
	c.mu.RUnlock()
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// ReplaceFrom swaps every section for the ones in src.
func (c *Config) ReplaceFrom(src *Config) {
	src.mu.RLock()
	defer src.mu.RUnlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.AWS = src.AWS
	c.Agent = src.Agent
	c.Display = src.Display
	c.Executor = src.Executor
	c.Screenshots = src.Screenshots
	c.BedrockAgent = src.BedrockAgent
	c.ActionGroups = src.ActionGroups
	c.Server = src.Server
	c.Telemetry = src.Telemetry
}

// ServerSnapshot returns the server section under the read lock.
func (c *Config) ServerSnapshot() ServerConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Server
}

// MaskedCopy returns a JSON-safe map of the config with secrets masked.
func (c *Config) MaskedCopy() map[string]any {
	c.mu.RLock()
	data, _ := json.Marshal(c)
	c.mu.RUnlock()
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	maskSecrets(raw)
	return raw
}

var secretKeys = map[string]bool{
	"token":             true,
	"serpapi_api_key":   true,
	"headers":           true,
	"secret_access_key": true,
	"session_token":     true,
}

func maskSecrets(m map[string]any) {
	for k, v := range m {
		if secretKeys[k] {
			switch s := v.(type) {
			case string:
				m[k] = maskValue(s)
			case map[string]any:
				for hk, hv := range s {
					if hs, ok := hv.(string); ok {
						s[hk] = maskValue(hs)
					}
				}
			}
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			maskSecrets(sub)
		}
	}
}

func maskValue(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "****" + s[len(s)-4:]
	default:
		return "****"
	}
}

// Validate reports settings the commands cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display: width and height must be positive"))
	}
	switch c.Display.Driver {
	case "xdotool", "browser":
	default:
		errs = append(errs, fmt.Errorf("display: unknown driver %q (want xdotool or browser)", c.Display.Driver))
	}
	switch strings.ToLower(c.Agent.InjectionAction) {
	case "", "off", "log", "warn", "block":
	default:
		errs = append(errs, fmt.Errorf("agent: unknown injection_action %q", c.Agent.InjectionAction))
	}
	if c.Agent.Delay < 0 {
		errs = append(errs, fmt.Errorf("agent: delay must not be negative"))
	}
	if c.Agent.MaxTurns < 0 {
		errs = append(errs, fmt.Errorf("agent: max_turns must not be negative"))
	}
	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		errs = append(errs, fmt.Errorf("telemetry: unknown protocol %q", c.Telemetry.Protocol))
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		errs = append(errs, fmt.Errorf("telemetry: endpoint is required when enabled"))
	}
	return errors.Join(errs...)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
