// Package module groups DICOM attributes into the information modules of
// PS3.3 so fixtures and synthetic images can be assembled a module at a time.
package module

import (
	"fmt"
	"strings"
	"time"

	"github.com/jpfielding/dcmview/pkg/dicom/tag"
)

// Module is a set of attributes written together.
type Module interface {
	Elements() []Element
}

// Element is one attribute; an empty string Value means absent. Sequences
// use []Item.
type Element struct {
	Tag   tag.Tag
	Value interface{}
}

// Item is one sequence item.
type Item []Element

// Date is a DA value
type Date struct {
	Year  int
	Month int
	Day   int
}

func (d Date) String() string {
	if d == (Date{}) {
		return ""
	}
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

func NewDate(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Time is a TM value
type Time struct {
	Hour   int
	Minute int
	Second int
	Nano   int
}

func (t Time) String() string {
	// HHMMSS.FFFFFF
	return fmt.Sprintf("%02d%02d%02d.%06d", t.Hour, t.Minute, t.Second, t.Nano/1000)
}

func NewTime(t time.Time) Time {
	return Time{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nano: t.Nanosecond()}
}

// PersonName is a PN value
type PersonName struct {
	FamilyName string
	GivenName  string
	MiddleName string
	Prefix     string
	Suffix     string
}

// String renders Family^Given^Middle^Prefix^Suffix without trailing empty
// components.
func (p PersonName) String() string {
	s := strings.Join([]string{p.FamilyName, p.GivenName, p.MiddleName, p.Prefix, p.Suffix}, "^")
	return strings.TrimRight(s, "^")
}
