package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"

	"routedesk/pkg/config"
)

type RoutingConfig struct {
	// Teams overrides the built-in team -> address table.
	Teams     map[string]string `yaml:"teams"`
	FromName  string            `yaml:"from_name"`
	BatchCron string            `yaml:"batch_cron"`
	// DedupeTTLSeconds > 0 enables the Redis guard against double routing.
	DedupeTTLSeconds int `yaml:"dedupe_ttl_seconds"`
	// TriggerEnabled starts the message.created consumer.
	TriggerEnabled bool   `yaml:"trigger_enabled"`
	TriggerQueue   string `yaml:"trigger_queue"`
}

func (r RoutingConfig) DedupeTTL() time.Duration {
	return time.Duration(r.DedupeTTLSeconds) * time.Second
}

type OnboardingConfig struct {
	ManagerEmail string         `yaml:"manager_email"`
	FromName     string         `yaml:"from_name"`
	Tiers        map[string]int `yaml:"tiers"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Server     config.ServerConfig `yaml:"server"`
	DB         config.DBConfig     `yaml:"db"`
	MQ         config.MQConfig     `yaml:"mq"`
	Redis      config.RedisConfig  `yaml:"redis"`
	JWT        config.JWTConfig    `yaml:"jwt"`
	LLM        config.LLMConfig    `yaml:"llm"`
	Mail       config.MailConfig   `yaml:"mail"`
	Log        LogConfig           `yaml:"log"`
	Routing    RoutingConfig       `yaml:"routing"`
	Onboarding OnboardingConfig    `yaml:"onboarding"`
}

// Load reads config/<env> through the shared loader, applies environment
// overrides and validates the result.
func Load(env, configDir string) (*Config, error) {
	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := config.Decode(cfgMap, &cfg); err != nil {
		return nil, err
	}

	// 环境变量覆盖（优先级最高）
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideLLMFromEnv(&cfg.LLM)
	config.OverrideMailFromEnv(&cfg.Mail)

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Mail.Backend == "" {
		c.Mail.Backend = "http"
	}
	if c.Routing.TriggerQueue == "" {
		c.Routing.TriggerQueue = "message.created.route.q"
	}
	if c.Routing.FromName == "" {
		c.Routing.FromName = "Client Desk"
	}
	if c.Onboarding.FromName == "" {
		c.Onboarding.FromName = c.Routing.FromName
	}
}

func (c *Config) validate() error {
	var problems []string
	if c.JWT.Secret == "" {
		problems = append(problems, "jwt.secret is required")
	}
	switch c.Mail.Backend {
	case "http":
		if c.Mail.APIURL == "" {
			problems = append(problems, "mail.api_url is required for the http backend")
		}
	case "mq":
		if c.MQ.URL == "" {
			problems = append(problems, "mq.url is required for the mq mail backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("mail.backend must be http or mq, got %q", c.Mail.Backend))
	}
	if c.Routing.BatchCron != "" && !gronx.IsValid(c.Routing.BatchCron) {
		problems = append(problems, fmt.Sprintf("routing.batch_cron is not a valid cron expression: %q", c.Routing.BatchCron))
	}
	if c.Routing.TriggerEnabled && c.MQ.URL == "" {
		problems = append(problems, "mq.url is required when routing.trigger_enabled is set")
	}
	if c.Routing.DedupeTTLSeconds > 0 && c.Redis.Addr == "" {
		problems = append(problems, "redis.addr is required when routing.dedupe_ttl_seconds is set")
	}
	if c.Onboarding.ManagerEmail == "" {
		problems = append(problems, "onboarding.manager_email is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
