package model

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serverManaged = map[string]bool{
	"userId":         true,
	"profilePicture": true,
	"documents":      true,
	"createdAt":      true,
	"updatedAt":      true,
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings("64b7f0c2a1b2c3d4e5f60718")

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	want := map[string]any{
		"firstName": "John", "lastName": "Doe", "email": "john.doe@example.com",
		"phone": "+1 (555) 123-4567", "company": "Acme Corp", "jobTitle": "Senior Manager",
		"department": "Sales", "avatar": "",

		"emailNotifications": true, "pushNotifications": false, "smsNotifications": false,
		"marketingEmails": true, "securityAlerts": true, "orderUpdates": true,
		"priceAlerts": false, "newsletter": false, "notificationVolume": float64(70),
		"quietHours": false, "quietHoursStart": "22:00", "quietHoursEnd": "08:00",

		"compactMode": false, "showAnimations": true, "autoRefresh": true,
		"refreshInterval": float64(30), "fontSize": "medium", "contrast": "normal",
		"zoomLevel": float64(100), "showGridLines": true, "showTooltips": true, "autoSave": true,

		"twoFactorAuth": false, "sessionTimeout": float64(60), "dataRetention": float64(365),
		"analyticsTracking": true, "crashReporting": false, "locationSharing": false,
		"cookieConsent": true, "dataExport": false, "accountVisibility": "private",
		"passwordExpiry": float64(90),

		"language": []any{"English"}, "timezone": "UTC+00:00", "dateFormat": "MM/DD/YYYY",
		"timeFormat": "12h", "currency": "USD", "numberFormat": "1,234.56", "weekStart": "monday",

		"autoBackup": true, "backupFrequency": "daily", "maxStorage": float64(10),
		"compressionEnabled": true, "syncEnabled": true, "cloudStorage": "google",
		"localCache": true, "cacheSize": float64(500), "dataSync": "wifi",

		"performanceMode": "balanced", "cacheEnabled": true, "imageOptimization": true,
		"lazyLoading": true, "preloadData": false,

		"businessHours": "09:00-17:00", "timeTracking": true, "projectManagement": true,
		"teamCollaboration": true, "clientPortal": false, "apiAccess": false,

		"customTheme": "#1976d2", "customMessage": "", "notificationSound": "default",
		"accessibilityMode": false, "keyboardShortcuts": true, "voiceCommands": false,
	}

	for k, v := range want {
		assert.Equal(t, v, got[k], "field %s", k)
	}
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", got["userId"])
	assert.Equal(t, "", got["profilePicture"])
	assert.Equal(t, []any{}, got["documents"])
	assert.Nil(t, s.Validate())

	// Every patchable field has a documented default.
	assert.Len(t, want, len(FieldNames()))
}

func TestRegistryCoversEverySetting(t *testing.T) {
	typ := reflect.TypeOf(Settings{})
	seen := 0
	for i := 0; i < typ.NumField(); i++ {
		name := strings.SplitN(typ.Field(i).Tag.Get("json"), ",", 2)[0]
		if serverManaged[name] {
			_, ok := LookupField(name)
			assert.False(t, ok, "server-managed %s must not be patchable", name)
			continue
		}
		_, ok := LookupField(name)
		assert.True(t, ok, "missing registry entry for %s", name)
		seen++
	}
	assert.Equal(t, seen, len(FieldNames()))
}

func TestField_Set(t *testing.T) {
	s := DefaultSettings("u")

	tests := []struct {
		name    string
		field   string
		raw     string
		wantErr bool
		check   func(t *testing.T)
	}{
		{name: "enum string", field: "fontSize", raw: `"large"`, check: func(t *testing.T) { assert.Equal(t, "large", s.FontSize) }},
		{name: "bool", field: "newsletter", raw: `true`, check: func(t *testing.T) { assert.True(t, s.Newsletter) }},
		{name: "int", field: "zoomLevel", raw: `110`, check: func(t *testing.T) { assert.Equal(t, 110, s.ZoomLevel) }},
		{name: "string list", field: "language", raw: `["English","French"]`, check: func(t *testing.T) {
			assert.Equal(t, []string{"English", "French"}, s.Language)
		}},
		{name: "string into bool", field: "newsletter", raw: `"yes"`, wantErr: true},
		{name: "fraction into int", field: "zoomLevel", raw: `100.5`, wantErr: true},
		{name: "scalar into list", field: "language", raw: `"English"`, wantErr: true},
		{name: "null", field: "fontSize", raw: `null`, wantErr: true},
		{name: "missing value", field: "fontSize", raw: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := LookupField(tt.field)
			require.True(t, ok)
			err := f.Set(s, json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrFieldType)
				return
			}
			require.NoError(t, err)
			tt.check(t)
		})
	}
}

func TestField_Get(t *testing.T) {
	s := DefaultSettings("u")
	f, ok := LookupField("fontSize")
	require.True(t, ok)
	assert.Equal(t, "fontSize", f.Name())
	assert.Equal(t, "medium", f.Get(s))

	_, ok = LookupField("darkMode")
	assert.False(t, ok)
}

func TestSettings_Validate(t *testing.T) {
	t.Run("enum outside domain", func(t *testing.T) {
		s := DefaultSettings("u")
		s.FontSize = "huge"
		s.BackupFrequency = "yearly"
		errs := s.Validate()
		require.Len(t, errs, 2)
		assert.Equal(t, "must be one of: small, medium, large", errs["fontSize"])
		assert.Contains(t, errs, "backupFrequency")
	})

	t.Run("range bounds", func(t *testing.T) {
		s := DefaultSettings("u")
		s.NotificationVolume = 101
		s.ZoomLevel = 79
		errs := s.Validate()
		assert.Equal(t, "must be at most 100", errs["notificationVolume"])
		assert.Equal(t, "must be at least 80", errs["zoomLevel"])
	})

	t.Run("inclusive bounds are valid", func(t *testing.T) {
		s := DefaultSettings("u")
		s.NotificationVolume = 0
		s.SessionTimeout = 480
		s.DataRetention = 30
		assert.Nil(t, s.Validate())
	})

	t.Run("embedded document category", func(t *testing.T) {
		s := DefaultSettings("u")
		s.Documents = []Document{{ID: "d1", Category: "secret"}}
		errs := s.Validate()
		assert.Contains(t, errs, "documents[0].category")
	})
}

func TestDocument_Validate(t *testing.T) {
	for _, c := range []string{CategoryPersonal, CategoryBusiness, CategoryLegal, CategoryOther} {
		d := Document{Category: c}
		assert.Nil(t, d.Validate(), c)
	}
	d := Document{Category: "misc"}
	assert.Contains(t, d.Validate(), "category")
}

func TestFindDocument(t *testing.T) {
	s := DefaultSettings("u")
	s.Documents = []Document{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, 1, s.FindDocument("b"))
	assert.Equal(t, -1, s.FindDocument("c"))
}
