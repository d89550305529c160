package service

import (
	"strconv"
	"strings"
	"time"

	"settingsapi/internal/model"
)

const quietHoursVolumeCap = 30

// Effective is the derived view clients apply: values that depend on more than one
// stored field or on the current time in the user's timezone.
type Effective struct {
	Timezone           string  `json:"timezone"`
	QuietHoursActive   bool    `json:"quietHoursActive"`
	NotificationVolume int     `json:"notificationVolume"`
	FontSizePx         int     `json:"fontSizePx"`
	ZoomFactor         float64 `json:"zoomFactor"`
	Today              string  `json:"today"`
	LocalTime          string  `json:"localTime"`
}

var dateLayouts = map[string]string{
	"MM/DD/YYYY": "01/02/2006",
	"DD/MM/YYYY": "02/01/2006",
	"YYYY-MM-DD": "2006-01-02",
}

// Derive computes the effective view of s at instant now.
func Derive(s *model.Settings, now time.Time) Effective {
	local := now.In(offsetLocation(s.Timezone))

	quiet := s.QuietHours && inWindow(
		local.Hour()*60+local.Minute(),
		clockMinutes(s.QuietHoursStart, 22*60),
		clockMinutes(s.QuietHoursEnd, 8*60),
	)
	volume := s.NotificationVolume
	if quiet && volume > quietHoursVolumeCap {
		volume = quietHoursVolumeCap
	}

	layout, ok := dateLayouts[s.DateFormat]
	if !ok {
		layout = dateLayouts["MM/DD/YYYY"]
	}
	clock := "3:04 PM"
	if s.TimeFormat == "24h" {
		clock = "15:04"
	}

	return Effective{
		Timezone:           s.Timezone,
		QuietHoursActive:   quiet,
		NotificationVolume: volume,
		FontSizePx:         fontSizePx(s.FontSize),
		ZoomFactor:         float64(s.ZoomLevel) / 100,
		Today:              local.Format(layout),
		LocalTime:          local.Format(clock),
	}
}

func fontSizePx(size string) int {
	switch size {
	case "small":
		return 14
	case "large":
		return 18
	default:
		return 16
	}
}

// inWindow reports whether cur lies in [start, end], wrapping past midnight when start > end.
func inWindow(cur, start, end int) bool {
	if start > end {
		return cur >= start || cur <= end
	}
	return cur >= start && cur <= end
}

// clockMinutes parses "HH:MM" into minutes past midnight.
func clockMinutes(v string, def int) int {
	hh, mm, ok := strings.Cut(v, ":")
	if !ok {
		return def
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return def
	}
	return h*60 + m
}

// offsetLocation turns "UTC+05:30" style labels into a fixed zone. Anything else is UTC.
func offsetLocation(tz string) *time.Location {
	rest, ok := strings.CutPrefix(tz, "UTC")
	if !ok || rest == "" {
		return time.UTC
	}
	sign := 1
	switch rest[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return time.UTC
	}
	hh, mm, _ := strings.Cut(rest[1:], ":")
	h, err := strconv.Atoi(hh)
	if err != nil || h > 14 {
		return time.UTC
	}
	m := 0
	if mm != "" {
		if m, err = strconv.Atoi(mm); err != nil || m > 59 {
			return time.UTC
		}
	}
	return time.FixedZone(tz, sign*(h*3600+m*60))
}
