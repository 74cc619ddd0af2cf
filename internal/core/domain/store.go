package domain

import (
	"fmt"
	"strings"
)

// Store represents a merchant store as returned by the API
type Store struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	ContactName   string `json:"contact_name"`
	ContactNumber string `json:"contact_number"`
	Address       string `json:"address"`
	CityID        int    `json:"city_id"`
	ZoneID        int    `json:"zone_id"`
	AreaID        int    `json:"area_id"`
}

// StoreCreate describes a store to be created. Location is given by name;
// the IDs are resolved against the reference data before submission.
type StoreCreate struct {
	Name             string
	ContactName      string
	ContactNumber    string
	SecondaryContact string // Optional secondary phone
	OTPNumber        string // Optional OTP phone
	Address          string
	CityName         string
	ZoneName         string
	AreaName         string
}

// StoreCreateRequest is the wire payload for the store creation endpoint,
// carrying the resolved location IDs instead of names
type StoreCreateRequest struct {
	Name             string `json:"name"`
	ContactName      string `json:"contact_name"`
	ContactNumber    string `json:"contact_number"`
	SecondaryContact string `json:"secondary_contact,omitempty"`
	OTPNumber        string `json:"otp_number,omitempty"`
	Address          string `json:"address"`
	CityID           int    `json:"city_id"`
	ZoneID           int    `json:"zone_id"`
	AreaID           int    `json:"area_id"`
}

// Validate checks the field constraints the API enforces server-side, so
// obviously bad input fails before any network or cache work happens
func (s *StoreCreate) Validate() error {
	if err := validateLength("name", s.Name, 3, 50); err != nil {
		return err
	}
	if err := validateLength("contact_name", s.ContactName, 3, 50); err != nil {
		return err
	}
	if err := validateContactNumber("contact_number", s.ContactNumber); err != nil {
		return err
	}
	if s.SecondaryContact != "" {
		if err := validateContactNumber("secondary_contact", s.SecondaryContact); err != nil {
			return err
		}
	}
	if s.OTPNumber != "" {
		if err := validateContactNumber("otp_number", s.OTPNumber); err != nil {
			return err
		}
	}
	if err := validateLength("address", s.Address, 15, 120); err != nil {
		return err
	}
	if strings.TrimSpace(s.CityName) == "" {
		return fmt.Errorf("%w: city_name cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(s.ZoneName) == "" {
		return fmt.Errorf("%w: zone_name cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(s.AreaName) == "" {
		return fmt.Errorf("%w: area_name cannot be empty", ErrValidation)
	}
	return nil
}

func validateLength(field, value string, min, max int) error {
	n := len(strings.TrimSpace(value))
	if n < min || n > max {
		return fmt.Errorf("%w: %s must be between %d and %d characters", ErrValidation, field, min, max)
	}
	return nil
}

func validateContactNumber(field, value string) error {
	if len(value) != 11 {
		return fmt.Errorf("%w: %s must be exactly 11 digits", ErrValidation, field)
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %s must contain only digits", ErrValidation, field)
		}
	}
	return nil
}
