// Package config loads the process-wide configuration that is injected into the
// router, strategies and notifier at startup.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "THREAT_RESPONSE"

	// LegacyTopicEnv is the variable the Lambda deployment sets for the topic.
	LegacyTopicEnv = "SNS_TOPIC_ARN"
)

type Config struct {
	LogLevel     string             `mapstructure:"log_level"`
	AWS          AWSConfig          `mapstructure:"aws"`
	Notification NotificationConfig `mapstructure:"notification"`
	Isolation    IsolationConfig    `mapstructure:"isolation"`
	Audit        AuditConfig        `mapstructure:"audit"`
	History      HistoryConfig      `mapstructure:"history"`
	Server       ServerConfig       `mapstructure:"server"`
}

type AWSConfig struct {
	Profile string `mapstructure:"profile"`
	Region  string `mapstructure:"region"`
}

type NotificationConfig struct {
	TopicARN      string `mapstructure:"topic_arn"`
	NotifyOnAbort bool   `mapstructure:"notify_on_abort"`
	// NATSURL additionally publishes every alert to NATSSubject when set.
	NATSURL     string `mapstructure:"nats_url"`
	NATSSubject string `mapstructure:"nats_subject"`
}

type IsolationConfig struct {
	GroupPrefix string `mapstructure:"group_prefix"`
}

// AuditConfig enables the S3 archive of processed findings when Bucket is set.
type AuditConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// HistoryConfig enables the local DuckDB remediation history when DBPath is set.
type HistoryConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.region", DefaultRegion)
	v.SetDefault("notification.topic_arn", "")
	v.SetDefault("notification.notify_on_abort", false)
	v.SetDefault("notification.nats_url", "")
	v.SetDefault("notification.nats_subject", "sec.responses.threat")
	v.SetDefault("isolation.group_prefix", "ISOLATION-")
	v.SetDefault("audit.bucket", "")
	v.SetDefault("audit.prefix", "findings/")
	v.SetDefault("history.db_path", "")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
}

// Load reads configuration from the optional file at path and the environment.
// Environment variables take precedence, e.g. THREAT_RESPONSE_AUDIT_BUCKET.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("notification.topic_arn", EnvPrefix+"_NOTIFICATION_TOPIC_ARN", LegacyTopicEnv); err != nil {
		return nil, fmt.Errorf("failed to bind topic env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that cannot work. A missing topic is allowed: the
// notifier then degrades to logging only.
func (c *Config) Validate() error {
	if c.Notification.TopicARN != "" && !strings.HasPrefix(c.Notification.TopicARN, "arn:") {
		return fmt.Errorf("notification.topic_arn %q is not an ARN", c.Notification.TopicARN)
	}
	if c.Isolation.GroupPrefix == "" {
		return errors.New("isolation.group_prefix must not be empty")
	}
	return nil
}
