package model

// Profile is the display profile kept in user_profiles/{username}.
type Profile struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Image     *string `json:"image"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

// Contact is a WhatsApp recipient.
type Contact struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// WhatsAppSettings lists report recipients.
type WhatsAppSettings struct {
	Individual []Contact `json:"individual"`
	FullReport []Contact `json:"full_report"`
}

// DashboardSettings holds dashboard filter defaults.
type DashboardSettings struct {
	AvailableYears []string `json:"availableYears"`
	ActiveMonth    string   `json:"activeMonth"`
	ActiveYear     string   `json:"activeYear"`
}

// SystemSettings is the single system_settings/app_config document.
type SystemSettings struct {
	WhatsApp     WhatsAppSettings  `json:"whatsapp"`
	Dashboard    DashboardSettings `json:"dashboard"`
	GlobalNotice string            `json:"globalNotice"`
}

// SettingsDocID is the id of the settings document.
const SettingsDocID = "app_config"

// DefaultSettings is written on first read when no settings document exists.
func DefaultSettings() SystemSettings {
	return SystemSettings{
		WhatsApp: WhatsAppSettings{
			Individual: []Contact{
				{Name: "Rajib Vai (DE-1)", Number: "01738601614"},
				{Name: "Shakil Vai (DE-2)", Number: "01757461477"},
				{Name: "Sabbir Vai (DE-3)", Number: "01713141291"},
				{Name: "Aziz Vai (DE-4)", Number: "01798442258"},
				{Name: "Aminul Vai (DE-5)", Number: "01618941814"},
			},
			FullReport: []Contact{
				{Name: "Farid Vaia", Number: "01984411753"},
				{Name: "Ramjan Vaia", Number: "01907884179"},
				{Name: "Tanvir Vaia", Number: "01907884178"},
			},
		},
		Dashboard: DashboardSettings{
			AvailableYears: []string{"2023", "2024", "2025", "2026"},
			ActiveMonth:    "all",
			ActiveYear:     "all",
		},
		GlobalNotice: "Welcome to GMS Trims Booking System!",
	}
}

// Notice is a marquee announcement.
type Notice struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}
