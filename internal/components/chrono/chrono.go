package chrono

import "time"

// API is the source of "now" for anything that depends on the calendar,
// like the default date of a class.
type API interface {
	Now() time.Time
	Location() *time.Location
}

// PortalLocation is the timezone the portal records dates in.
const PortalLocation = "America/Sao_Paulo"

type StandardImpl struct {
	location *time.Location
}

func NewStandardImpl() (StandardImpl, error) {
	location, err := time.LoadLocation(PortalLocation)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

// force the portal timezone, the machine running the cli may be anywhere
// and the date of a class is a portal calendar date.
func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always returns the same instant.
type FixedImpl struct {
	At time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.At
}

func (f FixedImpl) Location() *time.Location {
	return f.At.Location()
}

// FormatDate formats a date the way the portal's date inputs expect it.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// ParseDate parses a date in the portal's format in the given location.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("02/01/2006", value, loc)
}
