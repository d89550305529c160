// Package model holds the settings record, its documents and their validation rules.
package model

import "time"

// Settings is the per-user preference record. Exactly one exists per user identity.
// Documents and ProfilePicture are managed by the upload endpoints, never by field patches.
type Settings struct {
	UserID string `json:"userId" bson:"userId"`

	// Profile
	FirstName  string `json:"firstName" bson:"firstName"`
	LastName   string `json:"lastName" bson:"lastName"`
	Email      string `json:"email" bson:"email"`
	Phone      string `json:"phone" bson:"phone"`
	Company    string `json:"company" bson:"company"`
	JobTitle   string `json:"jobTitle" bson:"jobTitle"`
	Department string `json:"department" bson:"department"`
	Avatar     string `json:"avatar" bson:"avatar"`

	// Notifications
	EmailNotifications bool   `json:"emailNotifications" bson:"emailNotifications"`
	PushNotifications  bool   `json:"pushNotifications" bson:"pushNotifications"`
	SMSNotifications   bool   `json:"smsNotifications" bson:"smsNotifications"`
	MarketingEmails    bool   `json:"marketingEmails" bson:"marketingEmails"`
	SecurityAlerts     bool   `json:"securityAlerts" bson:"securityAlerts"`
	OrderUpdates       bool   `json:"orderUpdates" bson:"orderUpdates"`
	PriceAlerts        bool   `json:"priceAlerts" bson:"priceAlerts"`
	Newsletter         bool   `json:"newsletter" bson:"newsletter"`
	NotificationVolume int    `json:"notificationVolume" bson:"notificationVolume" validate:"min=0,max=100"`
	QuietHours         bool   `json:"quietHours" bson:"quietHours"`
	QuietHoursStart    string `json:"quietHoursStart" bson:"quietHoursStart"`
	QuietHoursEnd      string `json:"quietHoursEnd" bson:"quietHoursEnd"`

	// Display & appearance
	CompactMode     bool   `json:"compactMode" bson:"compactMode"`
	ShowAnimations  bool   `json:"showAnimations" bson:"showAnimations"`
	AutoRefresh     bool   `json:"autoRefresh" bson:"autoRefresh"`
	RefreshInterval int    `json:"refreshInterval" bson:"refreshInterval" validate:"min=5,max=300"`
	FontSize        string `json:"fontSize" bson:"fontSize" validate:"oneof=small medium large"`
	Contrast        string `json:"contrast" bson:"contrast" validate:"oneof=normal high low"`
	ZoomLevel       int    `json:"zoomLevel" bson:"zoomLevel" validate:"min=80,max=120"`
	ShowGridLines   bool   `json:"showGridLines" bson:"showGridLines"`
	ShowTooltips    bool   `json:"showTooltips" bson:"showTooltips"`
	AutoSave        bool   `json:"autoSave" bson:"autoSave"`

	// Privacy & security
	TwoFactorAuth     bool   `json:"twoFactorAuth" bson:"twoFactorAuth"`
	SessionTimeout    int    `json:"sessionTimeout" bson:"sessionTimeout" validate:"min=15,max=480"`
	DataRetention     int    `json:"dataRetention" bson:"dataRetention" validate:"min=30,max=1095"`
	AnalyticsTracking bool   `json:"analyticsTracking" bson:"analyticsTracking"`
	CrashReporting    bool   `json:"crashReporting" bson:"crashReporting"`
	LocationSharing   bool   `json:"locationSharing" bson:"locationSharing"`
	CookieConsent     bool   `json:"cookieConsent" bson:"cookieConsent"`
	DataExport        bool   `json:"dataExport" bson:"dataExport"`
	AccountVisibility string `json:"accountVisibility" bson:"accountVisibility" validate:"oneof=public private friends"`
	PasswordExpiry    int    `json:"passwordExpiry" bson:"passwordExpiry" validate:"min=30,max=365"`

	// Language & region
	Language     []string `json:"language" bson:"language"`
	Timezone     string   `json:"timezone" bson:"timezone"`
	DateFormat   string   `json:"dateFormat" bson:"dateFormat" validate:"oneof=MM/DD/YYYY DD/MM/YYYY YYYY-MM-DD"`
	TimeFormat   string   `json:"timeFormat" bson:"timeFormat" validate:"oneof=12h 24h"`
	Currency     string   `json:"currency" bson:"currency"`
	NumberFormat string   `json:"numberFormat" bson:"numberFormat"`
	WeekStart    string   `json:"weekStart" bson:"weekStart" validate:"oneof=sunday monday"`

	// Data & storage
	AutoBackup         bool   `json:"autoBackup" bson:"autoBackup"`
	BackupFrequency    string `json:"backupFrequency" bson:"backupFrequency" validate:"oneof=hourly daily weekly monthly"`
	MaxStorage         int    `json:"maxStorage" bson:"maxStorage" validate:"min=1,max=100"`
	CompressionEnabled bool   `json:"compressionEnabled" bson:"compressionEnabled"`
	SyncEnabled        bool   `json:"syncEnabled" bson:"syncEnabled"`
	CloudStorage       string `json:"cloudStorage" bson:"cloudStorage" validate:"oneof=google dropbox onedrive icloud"`
	LocalCache         bool   `json:"localCache" bson:"localCache"`
	CacheSize          int    `json:"cacheSize" bson:"cacheSize" validate:"min=100,max=1000"`
	DataSync           string `json:"dataSync" bson:"dataSync" validate:"oneof=wifi always never"`

	// Performance
	PerformanceMode   string `json:"performanceMode" bson:"performanceMode" validate:"oneof=power-saver balanced high-performance"`
	CacheEnabled      bool   `json:"cacheEnabled" bson:"cacheEnabled"`
	ImageOptimization bool   `json:"imageOptimization" bson:"imageOptimization"`
	LazyLoading       bool   `json:"lazyLoading" bson:"lazyLoading"`
	PreloadData       bool   `json:"preloadData" bson:"preloadData"`

	// Business
	BusinessHours     string `json:"businessHours" bson:"businessHours"`
	TimeTracking      bool   `json:"timeTracking" bson:"timeTracking"`
	ProjectManagement bool   `json:"projectManagement" bson:"projectManagement"`
	TeamCollaboration bool   `json:"teamCollaboration" bson:"teamCollaboration"`
	ClientPortal      bool   `json:"clientPortal" bson:"clientPortal"`
	APIAccess         bool   `json:"apiAccess" bson:"apiAccess"`

	// Custom
	CustomTheme       string `json:"customTheme" bson:"customTheme"`
	CustomMessage     string `json:"customMessage" bson:"customMessage"`
	NotificationSound string `json:"notificationSound" bson:"notificationSound" validate:"oneof=default chime bell none"`
	AccessibilityMode bool   `json:"accessibilityMode" bson:"accessibilityMode"`
	KeyboardShortcuts bool   `json:"keyboardShortcuts" bson:"keyboardShortcuts"`
	VoiceCommands     bool   `json:"voiceCommands" bson:"voiceCommands"`

	// Files
	ProfilePicture string     `json:"profilePicture" bson:"profilePicture"`
	Documents      []Document `json:"documents" bson:"documents" validate:"dive"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DefaultSettings returns a fresh record for userID populated with the documented defaults.
func DefaultSettings(userID string) *Settings {
	return &Settings{
		UserID: userID,

		FirstName:  "John",
		LastName:   "Doe",
		Email:      "john.doe@example.com",
		Phone:      "+1 (555) 123-4567",
		Company:    "Acme Corp",
		JobTitle:   "Senior Manager",
		Department: "Sales",
		Avatar:     "",

		EmailNotifications: true,
		PushNotifications:  false,
		SMSNotifications:   false,
		MarketingEmails:    true,
		SecurityAlerts:     true,
		OrderUpdates:       true,
		PriceAlerts:        false,
		Newsletter:         false,
		NotificationVolume: 70,
		QuietHours:         false,
		QuietHoursStart:    "22:00",
		QuietHoursEnd:      "08:00",

		CompactMode:     false,
		ShowAnimations:  true,
		AutoRefresh:     true,
		RefreshInterval: 30,
		FontSize:        "medium",
		Contrast:        "normal",
		ZoomLevel:       100,
		ShowGridLines:   true,
		ShowTooltips:    true,
		AutoSave:        true,

		TwoFactorAuth:     false,
		SessionTimeout:    60,
		DataRetention:     365,
		AnalyticsTracking: true,
		CrashReporting:    false,
		LocationSharing:   false,
		CookieConsent:     true,
		DataExport:        false,
		AccountVisibility: "private",
		PasswordExpiry:    90,

		Language:     []string{"English"},
		Timezone:     "UTC+00:00",
		DateFormat:   "MM/DD/YYYY",
		TimeFormat:   "12h",
		Currency:     "USD",
		NumberFormat: "1,234.56",
		WeekStart:    "monday",

		AutoBackup:         true,
		BackupFrequency:    "daily",
		MaxStorage:         10,
		CompressionEnabled: true,
		SyncEnabled:        true,
		CloudStorage:       "google",
		LocalCache:         true,
		CacheSize:          500,
		DataSync:           "wifi",

		PerformanceMode:   "balanced",
		CacheEnabled:      true,
		ImageOptimization: true,
		LazyLoading:       true,
		PreloadData:       false,

		BusinessHours:     "09:00-17:00",
		TimeTracking:      true,
		ProjectManagement: true,
		TeamCollaboration: true,
		ClientPortal:      false,
		APIAccess:         false,

		CustomTheme:       "#1976d2",
		CustomMessage:     "",
		NotificationSound: "default",
		AccessibilityMode: false,
		KeyboardShortcuts: true,
		VoiceCommands:     false,

		Documents: []Document{},
	}
}

// FindDocument returns the index of the document with the given id, or -1.
func (s *Settings) FindDocument(id string) int {
	for i := range s.Documents {
		if s.Documents[i].ID == id {
			return i
		}
	}
	return -1
}
