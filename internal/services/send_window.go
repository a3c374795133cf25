package services

import (
	"fmt"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/au"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/nz"
	"github.com/rickar/cal/v2/us"
)

// SendWindowService decides whether outbound survey texts may go out right
// now. Carriers and regulators frown on late-night marketing texts, so
// dispatch respects quiet hours and, optionally, public holidays for the
// configured country.
type SendWindowService struct {
	configs   *SystemConfigService
	calendars map[string]*cal.BusinessCalendar
}

func NewSendWindowService(configs *SystemConfigService) *SendWindowService {
	s := &SendWindowService{
		configs:   configs,
		calendars: make(map[string]*cal.BusinessCalendar),
	}
	s.calendars["US"] = s.createCalendar("United States", us.Holidays...)
	s.calendars["GB"] = s.createCalendar("United Kingdom", gb.Holidays...)
	s.calendars["CA"] = s.createCalendar("Canada", ca.Holidays...)
	s.calendars["AU"] = s.createCalendar("Australia", au.HolidaysNSW...)
	s.calendars["NZ"] = s.createCalendar("New Zealand", nz.Holidays...)
	s.calendars["DE"] = s.createCalendar("Germany", de.Holidays...)
	s.calendars["FR"] = s.createCalendar("France", fr.Holidays...)
	return s
}

func (s *SendWindowService) createCalendar(name string, holidays ...*cal.Holiday) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.Name = name
	c.AddHoliday(holidays...)
	return c
}

// CanSendAt reports whether t falls inside the sending window, with a
// human-readable reason when it does not.
func (s *SendWindowService) CanSendAt(t time.Time) (bool, string) {
	quietStart := s.configs.GetWithDefault("sending_quiet_start", "20:00")
	quietEnd := s.configs.GetWithDefault("sending_quiet_end", "09:00")
	if inQuietHours(t, quietStart, quietEnd) {
		return false, fmt.Sprintf("inside quiet hours %s-%s", quietStart, quietEnd)
	}

	if s.configs.GetWithDefault("sending_business_days_only", "false") == "true" {
		country := s.configs.GetWithDefault("sending_country", "US")
		if !s.isWorkday(t, country) {
			return false, fmt.Sprintf("not a business day in %s", country)
		}
	}
	return true, ""
}

// CanSendNow is the dispatcher's gate.
func (s *SendWindowService) CanSendNow() (bool, string) {
	return s.CanSendAt(time.Now())
}

func (s *SendWindowService) isWorkday(t time.Time, country string) bool {
	if country == "NONE" {
		return !cal.IsWeekend(t)
	}
	c, ok := s.calendars[country]
	if !ok {
		return !cal.IsWeekend(t)
	}
	return c.IsWorkday(t)
}

// inQuietHours tests t's local clock against an HH:MM range that may wrap
// midnight (20:00-09:00 covers evening and early morning).
func inQuietHours(t time.Time, start, end string) bool {
	startMin, ok1 := parseClock(start)
	endMin, ok2 := parseClock(end)
	if !ok1 || !ok2 || startMin == endMin {
		return false
	}

	now := t.Hour()*60 + t.Minute()
	if startMin < endMin {
		return now >= startMin && now < endMin
	}
	return now >= startMin || now < endMin
}

func parseClock(s string) (int, bool) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
