package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrFieldType is returned when a value's JSON type does not match the field.
var ErrFieldType = errors.New("value has the wrong type for this field")

// Field is one patchable setting: a closed identifier bound to a typed getter and setter.
// Server-managed attributes (userId, documents, profilePicture, timestamps) are not fields.
type Field struct {
	name string
	get  func(*Settings) any
	set  func(*Settings, json.RawMessage) error
}

// Name returns the field's wire name.
func (f Field) Name() string { return f.name }

// Get reads the field from s.
func (f Field) Get(s *Settings) any { return f.get(s) }

// Set decodes raw into the field's Go type and assigns it. It does not validate the
// resulting record; callers run Settings.Validate afterwards.
func (f Field) Set(s *Settings, raw json.RawMessage) error { return f.set(s, raw) }

func field[T any](name string, ref func(*Settings) *T) Field {
	return Field{
		name: name,
		get:  func(s *Settings) any { return *ref(s) },
		set: func(s *Settings, raw json.RawMessage) error {
			trimmed := bytes.TrimSpace(raw)
			if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
				return fmt.Errorf("%s: %w", name, ErrFieldType)
			}
			var v T
			if err := json.Unmarshal(trimmed, &v); err != nil {
				return fmt.Errorf("%s: %w", name, ErrFieldType)
			}
			*ref(s) = v
			return nil
		},
	}
}

var registry = buildRegistry(
	// Profile
	field("firstName", func(s *Settings) *string { return &s.FirstName }),
	field("lastName", func(s *Settings) *string { return &s.LastName }),
	field("email", func(s *Settings) *string { return &s.Email }),
	field("phone", func(s *Settings) *string { return &s.Phone }),
	field("company", func(s *Settings) *string { return &s.Company }),
	field("jobTitle", func(s *Settings) *string { return &s.JobTitle }),
	field("department", func(s *Settings) *string { return &s.Department }),
	field("avatar", func(s *Settings) *string { return &s.Avatar }),

	// Notifications
	field("emailNotifications", func(s *Settings) *bool { return &s.EmailNotifications }),
	field("pushNotifications", func(s *Settings) *bool { return &s.PushNotifications }),
	field("smsNotifications", func(s *Settings) *bool { return &s.SMSNotifications }),
	field("marketingEmails", func(s *Settings) *bool { return &s.MarketingEmails }),
	field("securityAlerts", func(s *Settings) *bool { return &s.SecurityAlerts }),
	field("orderUpdates", func(s *Settings) *bool { return &s.OrderUpdates }),
	field("priceAlerts", func(s *Settings) *bool { return &s.PriceAlerts }),
	field("newsletter", func(s *Settings) *bool { return &s.Newsletter }),
	field("notificationVolume", func(s *Settings) *int { return &s.NotificationVolume }),
	field("quietHours", func(s *Settings) *bool { return &s.QuietHours }),
	field("quietHoursStart", func(s *Settings) *string { return &s.QuietHoursStart }),
	field("quietHoursEnd", func(s *Settings) *string { return &s.QuietHoursEnd }),

	// Display & appearance
	field("compactMode", func(s *Settings) *bool { return &s.CompactMode }),
	field("showAnimations", func(s *Settings) *bool { return &s.ShowAnimations }),
	field("autoRefresh", func(s *Settings) *bool { return &s.AutoRefresh }),
	field("refreshInterval", func(s *Settings) *int { return &s.RefreshInterval }),
	field("fontSize", func(s *Settings) *string { return &s.FontSize }),
	field("contrast", func(s *Settings) *string { return &s.Contrast }),
	field("zoomLevel", func(s *Settings) *int { return &s.ZoomLevel }),
	field("showGridLines", func(s *Settings) *bool { return &s.ShowGridLines }),
	field("showTooltips", func(s *Settings) *bool { return &s.ShowTooltips }),
	field("autoSave", func(s *Settings) *bool { return &s.AutoSave }),

	// Privacy & security
	field("twoFactorAuth", func(s *Settings) *bool { return &s.TwoFactorAuth }),
	field("sessionTimeout", func(s *Settings) *int { return &s.SessionTimeout }),
	field("dataRetention", func(s *Settings) *int { return &s.DataRetention }),
	field("analyticsTracking", func(s *Settings) *bool { return &s.AnalyticsTracking }),
	field("crashReporting", func(s *Settings) *bool { return &s.CrashReporting }),
	field("locationSharing", func(s *Settings) *bool { return &s.LocationSharing }),
	field("cookieConsent", func(s *Settings) *bool { return &s.CookieConsent }),
	field("dataExport", func(s *Settings) *bool { return &s.DataExport }),
	field("accountVisibility", func(s *Settings) *string { return &s.AccountVisibility }),
	field("passwordExpiry", func(s *Settings) *int { return &s.PasswordExpiry }),

	// Language & region
	field("language", func(s *Settings) *[]string { return &s.Language }),
	field("timezone", func(s *Settings) *string { return &s.Timezone }),
	field("dateFormat", func(s *Settings) *string { return &s.DateFormat }),
	field("timeFormat", func(s *Settings) *string { return &s.TimeFormat }),
	field("currency", func(s *Settings) *string { return &s.Currency }),
	field("numberFormat", func(s *Settings) *string { return &s.NumberFormat }),
	field("weekStart", func(s *Settings) *string { return &s.WeekStart }),

	// Data & storage
	field("autoBackup", func(s *Settings) *bool { return &s.AutoBackup }),
	field("backupFrequency", func(s *Settings) *string { return &s.BackupFrequency }),
	field("maxStorage", func(s *Settings) *int { return &s.MaxStorage }),
	field("compressionEnabled", func(s *Settings) *bool { return &s.CompressionEnabled }),
	field("syncEnabled", func(s *Settings) *bool { return &s.SyncEnabled }),
	field("cloudStorage", func(s *Settings) *string { return &s.CloudStorage }),
	field("localCache", func(s *Settings) *bool { return &s.LocalCache }),
	field("cacheSize", func(s *Settings) *int { return &s.CacheSize }),
	field("dataSync", func(s *Settings) *string { return &s.DataSync }),

	// Performance
	field("performanceMode", func(s *Settings) *string { return &s.PerformanceMode }),
	field("cacheEnabled", func(s *Settings) *bool { return &s.CacheEnabled }),
	field("imageOptimization", func(s *Settings) *bool { return &s.ImageOptimization }),
	field("lazyLoading", func(s *Settings) *bool { return &s.LazyLoading }),
	field("preloadData", func(s *Settings) *bool { return &s.PreloadData }),

	// Business
	field("businessHours", func(s *Settings) *string { return &s.BusinessHours }),
	field("timeTracking", func(s *Settings) *bool { return &s.TimeTracking }),
	field("projectManagement", func(s *Settings) *bool { return &s.ProjectManagement }),
	field("teamCollaboration", func(s *Settings) *bool { return &s.TeamCollaboration }),
	field("clientPortal", func(s *Settings) *bool { return &s.ClientPortal }),
	field("apiAccess", func(s *Settings) *bool { return &s.APIAccess }),

	// Custom
	field("customTheme", func(s *Settings) *string { return &s.CustomTheme }),
	field("customMessage", func(s *Settings) *string { return &s.CustomMessage }),
	field("notificationSound", func(s *Settings) *string { return &s.NotificationSound }),
	field("accessibilityMode", func(s *Settings) *bool { return &s.AccessibilityMode }),
	field("keyboardShortcuts", func(s *Settings) *bool { return &s.KeyboardShortcuts }),
	field("voiceCommands", func(s *Settings) *bool { return &s.VoiceCommands }),
)

func buildRegistry(fields ...Field) map[string]Field {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		if _, dup := m[f.name]; dup {
			panic("model: duplicate settings field " + f.name)
		}
		m[f.name] = f
	}
	return m
}

// LookupField resolves a wire name to its Field.
func LookupField(name string) (Field, bool) {
	f, ok := registry[name]
	return f, ok
}

// FieldNames returns every patchable field name in sorted order.
func FieldNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
