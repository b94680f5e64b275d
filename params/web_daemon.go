package params

import "time"

type WebDaemonConfig struct {
	ListenerConfig

	// TokenEnvVar names the environment variable holding the token
	// required by mutating routes. An empty token allows all requests.
	TokenEnvVar string

	// MaxBodyBytes limits the size of fix upload bodies.
	MaxBodyBytes int64

	ShutdownTimeout time.Duration
}

func DefaultWebListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:3000",
	}
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		ListenerConfig:  DefaultWebListenerConfig(),
		TokenEnvVar:     "FIXD_TOKEN",
		MaxBodyBytes:    8 << 20,
		ShutdownTimeout: 5 * time.Second,
	}
}

func DefaultTestWebDaemonConfig() *WebDaemonConfig {
	d := DefaultWebDaemonConfig()
	d.ListenerConfig = ListenerConfig{
		Network: "tcp",
		Address: "localhost:3333",
	}
	return d
}
