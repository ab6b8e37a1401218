// Package timeconv converts between the UTC instants kept in storage and the
// wall-clock representation shown to callers.
package timeconv

import (
	"fmt"
	"strings"
	"time"
)

// DefaultZone is the display zone used when none is configured.
const DefaultZone = "Asia/Shanghai"

// LocalLayout is the wall-clock layout accepted from and rendered to callers.
const LocalLayout = "2006-01-02 15:04:05"

var localLayouts = []string{
	LocalLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Converter holds the display location.
type Converter struct {
	loc *time.Location
}

// New loads the named zone. Hosts without tzdata still get the fixed +08:00
// offset for the default zone.
func New(zone string) (*Converter, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		if zone != DefaultZone {
			return nil, fmt.Errorf("load time zone %q: %w", zone, err)
		}
		loc = time.FixedZone(DefaultZone, 8*60*60)
	}
	return &Converter{loc: loc}, nil
}

// MustNew is New for static zone names.
func MustNew(zone string) *Converter {
	c, err := New(zone)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Converter) Location() *time.Location {
	return c.loc
}

// ParseLocal reads a caller-supplied timestamp and returns it as a UTC instant.
// Strings carrying an offset (RFC 3339) keep it; bare wall-clock strings are
// read in the display zone. An empty string yields nil.
func (c *Converter) ParseLocal(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return c.ToUTC(&t), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, c.loc); err == nil {
			return c.ToUTC(&t), nil
		}
	}
	return nil, fmt.Errorf("unrecognized time %q", value)
}

// ToUTC normalizes an instant for storage.
func (c *Converter) ToUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// ToLocal converts a stored instant to the display zone.
func (c *Converter) ToLocal(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	local := t.In(c.loc)
	return &local
}

// FormatLocal renders an instant as display-zone wall-clock text.
func (c *Converter) FormatLocal(t time.Time) string {
	return t.In(c.loc).Format(LocalLayout)
}
