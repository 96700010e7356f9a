package config

import "context"

type contextKey string

const (
	configKey  contextKey = "config"
	secretsKey contextKey = "secrets"
)

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}

// WithSecrets stores secrets in context
func WithSecrets(ctx context.Context, secrets *Secrets) context.Context {
	return context.WithValue(ctx, secretsKey, secrets)
}

// SecretsFromContext retrieves secrets from context
func SecretsFromContext(ctx context.Context) *Secrets {
	if secrets, ok := ctx.Value(secretsKey).(*Secrets); ok {
		return secrets
	}
	return &Secrets{}
}
