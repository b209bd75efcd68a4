package services

import (
	"strings"
	"time"

	"github.com/6tail/lunar-go/HolidayUtil"
	"github.com/6tail/lunar-go/calendar"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/au"
	"github.com/rickar/cal/v2/br"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/es"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/ie"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/jp"
	"github.com/rickar/cal/v2/nl"
	"github.com/rickar/cal/v2/se"
	"github.com/rickar/cal/v2/us"
)

const (
	CountryChina        = "CN"
	CountryWeekdaysOnly = "NONE"
)

var holidayRegions = []struct {
	code     string
	name     string
	holidays []*cal.Holiday
}{
	{"US", "United States", us.Holidays},
	{"GB", "United Kingdom", gb.Holidays},
	{"IE", "Ireland", ie.Holidays},
	{"DE", "Germany", de.Holidays},
	{"FR", "France", fr.Holidays},
	{"IT", "Italy", it.Holidays},
	{"ES", "Spain", es.Holidays},
	{"NL", "Netherlands", nl.Holidays},
	{"SE", "Sweden", se.Holidays},
	{"JP", "Japan", jp.Holidays},
	{"AU", "Australia", au.HolidaysNSW},
	{"CA", "Canada", ca.Holidays},
	{"BR", "Brazil", br.Holidays},
}

// HolidayCalendar answers whether reviewers should be contacted on a given day.
type HolidayCalendar struct {
	calendars map[string]*cal.BusinessCalendar
}

func NewHolidayCalendar() *HolidayCalendar {
	h := &HolidayCalendar{calendars: make(map[string]*cal.BusinessCalendar, len(holidayRegions))}
	for _, r := range holidayRegions {
		c := cal.NewBusinessCalendar()
		c.Name = r.name
		c.AddHoliday(r.holidays...)
		h.calendars[r.code] = c
	}
	return h
}

// Supported reports whether country has a calendar. Unknown codes fall back to weekdays only.
func (h *HolidayCalendar) Supported(country string) bool {
	country = strings.ToUpper(country)
	if country == CountryChina || country == CountryWeekdaysOnly {
		return true
	}
	_, ok := h.calendars[country]
	return ok
}

func (h *HolidayCalendar) IsWorkday(t time.Time, country string) bool {
	country = strings.ToUpper(country)
	if country == CountryChina {
		return isWorkdayChina(t)
	}
	if c, ok := h.calendars[country]; ok {
		return c.IsWorkday(t)
	}
	return !cal.IsWeekend(t)
}

// isWorkdayChina honours official holidays and the weekend make-up workdays.
func isWorkdayChina(t time.Time) bool {
	solar := calendar.NewSolarFromDate(t)
	if holiday := HolidayUtil.GetHolidayByYmd(solar.GetYear(), solar.GetMonth(), solar.GetDay()); holiday != nil {
		return holiday.IsWork()
	}
	return !cal.IsWeekend(t)
}
