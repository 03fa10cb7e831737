package config

const (
	defaultConfigPath              = "~/.config/dlview/config.toml"
	defaultFeedAddress             = "ws://localhost:8765"
	defaultHandshakeTimeoutSeconds = 10
	defaultContainerID             = "downloads"
	defaultServeListen             = ":8000"
	defaultRelayListen             = "localhost:8765"
	defaultLogDir                  = "~/.local/state/dlview/logs"
	defaultLogRetentionCount       = 5

	envFeedAddress = "DLVIEW_FEED_ADDRESS"
)

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		Feed: Feed{
			Address:                 defaultFeedAddress,
			HandshakeTimeoutSeconds: defaultHandshakeTimeoutSeconds,
		},
		Render: Render{
			ContainerID: defaultContainerID,
		},
		Serve: Serve{
			Listen: defaultServeListen,
		},
		Relay: Relay{
			Listen: defaultRelayListen,
		},
		Logging: Logging{
			Dir:            defaultLogDir,
			RetentionCount: defaultLogRetentionCount,
		},
	}
}
