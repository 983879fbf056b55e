package oxml

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidValue is wrapped by the conversion errors of SaxValue.
var ErrInvalidValue = errors.New("invalid value")

// SaxValue is text or an attribute value offered to a ValueHandler or
// AttrValueHandler. Like Token.ByteData it is only valid during the call.
type SaxValue struct {
	data  []byte
	names *NameCache
}

// Bytes returns the raw value.
func (v SaxValue) Bytes() []byte {
	return v.data
}

// AsString returns the value as a string.
func (v SaxValue) AsString() string {
	return string(v.data)
}

// AsSymbol returns the trimmed value interned in the session's name cache.
func (v SaxValue) AsSymbol() Name {
	b := bytes.TrimSpace(v.data)
	if v.names == nil {
		return LocalName(string(b))
	}
	return v.names.Intern(b)
}

func (v SaxValue) AsInt() (int64, error) {
	s := strings.TrimSpace(string(v.data))
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, s)
	}
	return i, nil
}

func (v SaxValue) AsFloat() (float64, error) {
	s := strings.TrimSpace(string(v.data))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a float", ErrInvalidValue, s)
	}
	return f, nil
}

// AsBool accepts the forms of strconv.ParseBool plus "yes" and "no".
func (v SaxValue) AsBool() (bool, error) {
	s := strings.TrimSpace(string(v.data))
	switch strings.ToLower(s) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, s)
	}
	return b, nil
}

// AsTime parses the value with ParseTime.
func (v SaxValue) AsTime() (time.Time, error) {
	return ParseTime(strings.TrimSpace(string(v.data)))
}

// Empty reports whether the value is empty or only whitespace.
func (v SaxValue) Empty() bool {
	return onlyWhitespace(v.data)
}

// ParseTime parses RFC 3339 timestamps with optional fractional seconds
// and the "seconds.nanoseconds" form since the Unix epoch.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	sec, nsec, frac := strings.Cut(s, ".")
	secs, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a time", ErrInvalidValue, s)
	}
	var nanos int64
	if frac {
		if len(nsec) == 0 || len(nsec) > 9 {
			return time.Time{}, fmt.Errorf("%w: %q is not a time", ErrInvalidValue, s)
		}
		nanos, err = strconv.ParseInt(nsec+strings.Repeat("0", 9-len(nsec)), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q is not a time", ErrInvalidValue, s)
		}
	}
	return time.Unix(secs, nanos).UTC(), nil
}
