package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/canvaschat",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080",
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# canvaschat System Configuration
# Location: ~/.config/canvaschat/settings.toml
# This file uses TOML format: https://toml.io

# Directory where conversations and user config are stored
data_directory = "~/.local/share/canvaschat"
`
}

func GenerateUserConfigTemplate() string {
	return `# canvaschat User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

[server]
# Base URL of the companion server that exposes /api/chat and /api/chat/stream
base_url = "http://localhost:8080"

# Greeting shown when a conversation is empty (optional)
greeting = ""
`
}
