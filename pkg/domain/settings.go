package domain

// Settings are the server-wide editor preferences exposed over the API.
// They live in memory, seeded from configuration at startup.
type Settings struct {
	ComfyUIAPIURL               string `json:"comfyui_api_url"`
	EnableRealTimeCollaboration bool   `json:"enable_real_time_collaboration"`
	AutoSaveInterval            int    `json:"auto_save_interval"`
	MaxUploadSizeMB             int    `json:"max_upload_size_mb"`
	DefaultTheme                string `json:"default_theme"`
}

// DefaultSettings returns the out-of-the-box settings.
func DefaultSettings() Settings {
	return Settings{
		ComfyUIAPIURL:               "http://localhost:8188",
		EnableRealTimeCollaboration: true,
		AutoSaveInterval:            60,
		MaxUploadSizeMB:             10,
		DefaultTheme:                "light",
	}
}
