package model

// Credentials holds the single hotspot account submitted to the portal login form.
type Credentials struct {
	Username string
	Password string
}

// Valid reports whether both fields are non-empty.
func (c Credentials) Valid() bool {
	return c.Username != "" && c.Password != ""
}

// Settings toggles optional behavior of the login procedure. Settings are
// re-read from the configuration file before every login attempt.
type Settings struct {
	EnableNotifications bool
	AutoRetry           bool
	CheckConnection     bool
	LogToFile           bool
}

// DefaultSettings returns the settings written into a fresh configuration template.
func DefaultSettings() Settings {
	return Settings{
		EnableNotifications: true,
		AutoRetry:           true,
		CheckConnection:     true,
		LogToFile:           true,
	}
}

// Profile is a loaded configuration: who to log in as and how.
type Profile struct {
	Credentials Credentials
	Settings    Settings
}
