package oidc

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
)

type Audience []string

func (a *Audience) UnmarshalJSON(text []byte) error {
	var i any
	err := json.Unmarshal(text, &i)
	if err != nil {
		return err
	}
	switch aud := i.(type) {
	case []any:
		*a = make([]string, len(aud))
		for i, audience := range aud {
			str, ok := audience.(string)
			if !ok {
				return fmt.Errorf("audience must be a string, got %T", audience)
			}
			(*a)[i] = str
		}
	case string:
		*a = []string{aud}
	}
	return nil
}

func (a Audience) Contains(aud string) bool {
	for _, s := range a {
		if s == aud {
			return true
		}
	}
	return false
}

type Display string

func (d *Display) UnmarshalText(text []byte) error {
	display := Display(text)
	switch display {
	case DisplayPage, DisplayPopup, DisplayTouch, DisplayWAP:
		*d = display
	}
	return nil
}

type Gender string

type Locale struct {
	tag language.Tag
}

func NewLocale(tag language.Tag) *Locale {
	return &Locale{tag: tag}
}

func (l *Locale) Tag() language.Tag {
	if l == nil {
		return language.Und
	}
	return l.tag
}

func (l *Locale) String() string {
	return l.Tag().String()
}

func (l *Locale) MarshalJSON() ([]byte, error) {
	tag := l.Tag()
	if tag.IsRoot() {
		return []byte("null"), nil
	}
	return json.Marshal(tag)
}

func (l *Locale) UnmarshalJSON(data []byte) error {
	err := json.Unmarshal(data, &l.tag)
	if err != nil {
		l.tag = language.Und
	}
	return nil
}

type Locales []language.Tag

func (l *Locales) UnmarshalText(text []byte) error {
	locales := strings.Split(string(text), " ")
	for _, locale := range locales {
		tag, err := language.Parse(locale)
		if err == nil && !tag.IsRoot() {
			*l = append(*l, tag)
		}
	}
	return nil
}

func (l Locales) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l Locales) String() string {
	tags := make([]string, len(l))
	for i, tag := range l {
		tags[i] = tag.String()
	}
	return strings.Join(tags, " ")
}

// NewMaxAge returns a max_age value. It is a pointer,
// as 0 is a valid value which forces a re-authentication.
func NewMaxAge(i uint) *uint {
	return &i
}

type SpaceDelimitedArray []string

type Prompt SpaceDelimitedArray

// Contains reports if the prompt parameter holds p.
func (p Prompt) Contains(prompt string) bool {
	return SpaceDelimitedArray(p).Contains(prompt)
}

func (p *Prompt) UnmarshalText(text []byte) error {
	*p = strings.Fields(string(text))
	return nil
}

func (p Prompt) MarshalText() ([]byte, error) {
	return []byte(SpaceDelimitedArray(p).String()), nil
}

type ResponseType string

// Values returns the distinct members of the space separated response_type.
func (r ResponseType) Values() []string {
	fields := strings.Fields(string(r))
	seen := make(map[string]struct{}, len(fields))
	values := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		values = append(values, f)
	}
	return values
}

// Normalize sorts the members, so equal combinations
// compare equal regardless of the order they were sent in.
func (r ResponseType) Normalize() ResponseType {
	values := r.Values()
	sort.Strings(values)
	return ResponseType(strings.Join(values, " "))
}

// Equal compares the combinations as sets.
func (r ResponseType) Equal(other ResponseType) bool {
	return r.Normalize() == other.Normalize()
}

func (r ResponseType) Has(member string) bool {
	for _, v := range r.Values() {
		if v == member {
			return true
		}
	}
	return false
}

// ReturnsTokens is true for every combination that delivers
// an access or id token directly from the authorization endpoint.
func (r ResponseType) ReturnsTokens() bool {
	return r.Has(ResponseTypeMemberToken) || r.Has(ResponseTypeMemberIDToken)
}

type ResponseMode string

func (s SpaceDelimitedArray) String() string {
	return strings.Join(s, " ")
}

func (s SpaceDelimitedArray) Contains(value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}

func (s *SpaceDelimitedArray) UnmarshalText(text []byte) error {
	*s = strings.Fields(string(text))
	return nil
}

func (s SpaceDelimitedArray) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s SpaceDelimitedArray) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SpaceDelimitedArray) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = strings.Fields(str)
	return nil
}

func (s *SpaceDelimitedArray) Scan(src any) error {
	if src == nil {
		*s = nil
		return nil
	}
	switch v := src.(type) {
	case string:
		*s = strings.Fields(v)
		return nil
	case []byte:
		*s = strings.Fields(string(v))
		return nil
	default:
		return fmt.Errorf("cannot convert %T to SpaceDelimitedArray", src)
	}
}

func (s SpaceDelimitedArray) Value() (driver.Value, error) {
	return s.String(), nil
}

type Time int64

func (ts Time) AsTime() time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(int64(ts), 0)
}

func FromTime(tt time.Time) Time {
	if tt.IsZero() {
		return 0
	}
	return Time(tt.Unix())
}

func NowTime() Time {
	return FromTime(time.Now())
}

func (ts *Time) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("oidc.Time: %w", err)
	}
	switch x := v.(type) {
	case float64:
		*ts = Time(x)
	case string:
		tt, err := time.Parse(time.RFC3339, x)
		if err != nil {
			return fmt.Errorf("oidc.Time: %w", err)
		}
		*ts = FromTime(tt)
	case nil:
		*ts = 0
	default:
		return fmt.Errorf("oidc.Time: unable to parse type %T with value %v", x, x)
	}
	return nil
}
