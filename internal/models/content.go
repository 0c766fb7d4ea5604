package models

// StartupInfo is returned by the backend when the app starts.
type StartupInfo struct {
	IPCountry  CountryCode `json:"ipCountry"`
	UsersCount int         `json:"usersCount"`
}

// Link is a titled URL.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CalloutBoxContent is the content of the welcome callout box.
type CalloutBoxContent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        Link   `json:"link"`
}

// PushToken is a device push token as last sent to the backend.
type PushToken struct {
	Token       string `json:"token"`
	LastUpdated string `json:"lastUpdated"`
	Platform    string `json:"platform"`
}
