package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// VoiceConfig represents the complete voice integration configuration
type VoiceConfig struct {
	Provider ProviderConfig `toml:"provider"`
	Queuing  QueuingConfig  `toml:"queuing"`
	Calling  CallingConfig  `toml:"calling"`
}

// ProviderConfig contains API settings for the AI voice provider
type ProviderConfig struct {
	APIKey        string `toml:"api_key"`
	APIEndpoint   string `toml:"api_endpoint"`
	WebhookSecret string `toml:"webhook_secret"`
}

// QueuingConfig contains Redis and concurrency settings for the task queue
type QueuingConfig struct {
	RedisAddr       string         `toml:"redis_addr"`
	RedisPassword   string         `toml:"redis_password"`
	RedisDB         int            `toml:"redis_db"`
	Concurrency     int            `toml:"concurrency"`
	Queues          []string       `toml:"queues"`
	QueuePriorities map[string]int `toml:"queue_priorities"`
}

// CallingConfig contains per-tenant dialing limits. Zero disables a limit.
type CallingConfig struct {
	MaxConcurrentCalls int `toml:"max_concurrent_calls"`
	DailyCallCap       int `toml:"daily_call_cap"`
}

// QueueMap returns the queue-to-priority map for the task queue server.
// Queues without an explicit priority get weight 1.
func (q QueuingConfig) QueueMap() map[string]int {
	queues := make(map[string]int, len(q.Queues))
	for _, name := range q.Queues {
		queues[name] = 1
	}
	for name, priority := range q.QueuePriorities {
		if priority > 0 {
			queues[name] = priority
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}

// LoadVoiceConfig loads configuration from a TOML file
func LoadVoiceConfig(filename string) (*VoiceConfig, error) {
	config := &VoiceConfig{}
	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if config.Queuing.Concurrency <= 0 {
		config.Queuing.Concurrency = 10
	}
	if len(config.Queuing.Queues) == 0 {
		config.Queuing.Queues = []string{"default"}
	}
	return config, nil
}
