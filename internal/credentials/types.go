package credentials

import "time"

// Credentials holds the SmartApp installation identity and tokens issued by
// the SmartThings platform.
type Credentials struct {
	// InstalledAppID identifies this installation of the SmartApp.
	InstalledAppID string `json:"installedAppId"`

	// AuthToken authorizes SmartThings REST API calls. Short-lived,
	// refreshed by the platform on every lifecycle delivery.
	AuthToken string `json:"-"`

	// RefreshToken allows token renewal via OAuth. Stored but unused by
	// the bridge itself.
	RefreshToken string `json:"-"`

	// LocationID is the SmartThings location the app is installed into.
	LocationID string `json:"locationId"`

	// SavedAt records when these credentials were captured.
	SavedAt time.Time `json:"savedAt"`
}

// Installed reports whether the credentials represent a live installation.
// Both the installed app ID and an auth token must be present.
func (c Credentials) Installed() bool {
	return c.InstalledAppID != "" && c.AuthToken != ""
}
