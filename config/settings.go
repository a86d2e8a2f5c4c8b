package config

import "os"

// Settings carries the process-level switches that relax bootstrap
// restrictions. It is loaded once at startup and handed to the auth flows
// explicitly rather than read ad hoc.
type Settings struct {
	// DevelopmentMode relaxes the single-admin restriction and lets admin
	// accounts be created without OTP verification.
	DevelopmentMode bool
}

// App holds the settings loaded by LoadSettings.
var App Settings

func LoadSettings() Settings {
	App = Settings{
		DevelopmentMode: os.Getenv("DEVELOPMENT_MODE") == "true",
	}
	return App
}
