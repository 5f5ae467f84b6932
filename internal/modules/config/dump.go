package config

import (
	"gopkg.in/yaml.v2"
)

// Redacted — эффективный конфиг для стартового лога, секреты замазаны.
func (c *Config) Redacted() string {
	cp := *c
	cp.Binance.APIKey = redact(cp.Binance.APIKey)
	cp.Binance.APISecret = redact(cp.Binance.APISecret)
	cp.Telegram.Token = redact(cp.Telegram.Token)
	cp.DB = redact(cp.DB)

	out, err := yaml.Marshal(&cp)
	if err != nil {
		return "<unprintable config>"
	}
	return string(out)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
