package storage

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/language"

	"github.com/zitadel/authserver/pkg/oidc"
)

type User struct {
	ID                string
	Username          string
	PasswordHash      []byte
	Name              string
	GivenName         string
	FamilyName        string
	Nickname          string
	Picture           string
	Website           string
	Gender            string
	Birthdate         string
	Zoneinfo          string
	PreferredLanguage language.Tag
	Email             string
	EmailVerified     bool
	Phone             string
	PhoneVerified     bool
	Address           *oidc.UserInfoAddress
	UpdatedAt         time.Time
	Claims            map[string]any
}

// CheckPassword compares the password with the bcrypt hash of the user.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}

// UserInfo returns every claim of the user, the
// core releases the ones the request grants.
func (u *User) UserInfo() *oidc.UserInfo {
	info := &oidc.UserInfo{
		Subject: u.ID,
		UserInfoProfile: oidc.UserInfoProfile{
			Name:              u.Name,
			GivenName:         u.GivenName,
			FamilyName:        u.FamilyName,
			Nickname:          u.Nickname,
			Picture:           u.Picture,
			Website:           u.Website,
			Gender:            oidc.Gender(u.Gender),
			Birthdate:         u.Birthdate,
			Zoneinfo:          u.Zoneinfo,
			PreferredUsername: u.Username,
		},
		UserInfoEmail: oidc.UserInfoEmail{
			Email:         u.Email,
			EmailVerified: oidc.Bool(u.EmailVerified),
		},
		UserInfoPhone: oidc.UserInfoPhone{
			PhoneNumber:         u.Phone,
			PhoneNumberVerified: u.PhoneVerified,
		},
		Address: u.Address,
	}
	if u.PreferredLanguage != language.Und {
		info.Locale = oidc.NewLocale(u.PreferredLanguage)
	}
	if !u.UpdatedAt.IsZero() {
		info.UpdatedAt = oidc.FromTime(u.UpdatedAt)
	}
	for k, v := range u.Claims {
		info.AppendClaims(k, v)
	}
	return info
}

// UserConfig is a statically configured user. Either the bcrypt hash
// or the plain password is set, the latter is hashed on load.
type UserConfig struct {
	ID            string         `yaml:"id"`
	Username      string         `yaml:"username"`
	Password      string         `yaml:"password"`
	PasswordHash  string         `yaml:"password_hash"`
	Name          string         `yaml:"name"`
	GivenName     string         `yaml:"given_name"`
	FamilyName    string         `yaml:"family_name"`
	Nickname      string         `yaml:"nickname"`
	Picture       string         `yaml:"picture"`
	Website       string         `yaml:"website"`
	Gender        string         `yaml:"gender"`
	Birthdate     string         `yaml:"birthdate"`
	Zoneinfo      string         `yaml:"zoneinfo"`
	Locale        string         `yaml:"locale"`
	Email         string         `yaml:"email"`
	EmailVerified bool           `yaml:"email_verified"`
	Phone         string         `yaml:"phone_number"`
	PhoneVerified bool           `yaml:"phone_number_verified"`
	Address       *AddressConfig `yaml:"address"`
	UpdatedAt     time.Time      `yaml:"updated_at"`
	Claims        map[string]any `yaml:"claims"`
}

type AddressConfig struct {
	Formatted     string `yaml:"formatted"`
	StreetAddress string `yaml:"street_address"`
	Locality      string `yaml:"locality"`
	Region        string `yaml:"region"`
	PostalCode    string `yaml:"postal_code"`
	Country       string `yaml:"country"`
}

// User converts the configuration, hashing a plain password with cost.
func (c *UserConfig) User(cost int) (*User, error) {
	if c.ID == "" || c.Username == "" {
		return nil, fmt.Errorf("user %q: id and username are required", c.Username)
	}
	user := &User{
		ID:            c.ID,
		Username:      c.Username,
		Name:          c.Name,
		GivenName:     c.GivenName,
		FamilyName:    c.FamilyName,
		Nickname:      c.Nickname,
		Picture:       c.Picture,
		Website:       c.Website,
		Gender:        c.Gender,
		Birthdate:     c.Birthdate,
		Zoneinfo:      c.Zoneinfo,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		Phone:         c.Phone,
		PhoneVerified: c.PhoneVerified,
		UpdatedAt:     c.UpdatedAt,
		Claims:        c.Claims,
	}
	switch {
	case c.PasswordHash != "":
		if _, err := bcrypt.Cost([]byte(c.PasswordHash)); err != nil {
			return nil, fmt.Errorf("user %s: invalid password_hash: %w", c.Username, err)
		}
		user.PasswordHash = []byte(c.PasswordHash)
	case c.Password != "":
		hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", c.Username, err)
		}
		user.PasswordHash = hash
	}
	if c.Locale != "" {
		tag, err := language.Parse(c.Locale)
		if err != nil {
			return nil, fmt.Errorf("user %s: invalid locale: %w", c.Username, err)
		}
		user.PreferredLanguage = tag
	}
	if a := c.Address; a != nil {
		user.Address = &oidc.UserInfoAddress{
			Formatted:     a.Formatted,
			StreetAddress: a.StreetAddress,
			Locality:      a.Locality,
			Region:        a.Region,
			PostalCode:    a.PostalCode,
			Country:       a.Country,
		}
	}
	return user, nil
}
