package model

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	RoleUser       = "user"
	RoleDoctor     = "doctor"
	RolePharmacist = "pharmacist"

	// RoleAdmin is never stored on a record, it only appears in JWT claims.
	RoleAdmin = "admin"
)

// IsRecordRole reports whether role is one of the values a record may carry.
func IsRecordRole(role string) bool {
	switch role {
	case RoleUser, RoleDoctor, RolePharmacist:
		return true
	}
	return false
}

// EmergencyContact is the person to call for a patient
type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// GeoPoint is a GeoJSON point, Coordinates are [longitude, latitude]
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Demographics holds the optional fields shared by every role
type Demographics struct {
	DateOfBirth      string            `json:"dateOfBirth,omitempty"`
	Gender           string            `json:"gender,omitempty"`
	BloodGroup       string            `json:"bloodGroup,omitempty"`
	Address          string            `json:"address,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
	Allergies        []string          `json:"allergies,omitempty"`
}

// RoleDetails is the role specific part of a user record.
// Exactly one implementation exists per role.
type RoleDetails interface {
	Kind() string
	roleDetails()
}

// PatientDetails is the variant for plain users (and records without a role)
type PatientDetails struct{}

func (PatientDetails) Kind() string { return RoleUser }
func (PatientDetails) roleDetails() {}

// DoctorDetails is the variant for doctors
type DoctorDetails struct {
	Specialization  string   `json:"specialization,omitempty"`
	Qualification   string   `json:"qualification,omitempty"`
	Experience      *int     `json:"experience,omitempty"` // years
	ClinicName      string   `json:"clinicName,omitempty"`
	ClinicAddress   string   `json:"clinicAddress,omitempty"`
	ConsultationFee *float64 `json:"consultationFee,omitempty"`
	ClinicLatitude  *float64 `json:"clinicLatitude,omitempty"`
	ClinicLongitude *float64 `json:"clinicLongitude,omitempty"`
}

func (DoctorDetails) Kind() string { return RoleDoctor }
func (DoctorDetails) roleDetails() {}

// PharmacistDetails is the variant for pharmacists
type PharmacistDetails struct {
	PharmacyName      string   `json:"pharmacyName,omitempty"`
	PharmacyAddress   string   `json:"pharmacyAddress,omitempty"`
	LicenseNumber     string   `json:"licenseNumber,omitempty"`
	Medicines         []string `json:"medicines,omitempty"`
	PharmacyLatitude  *float64 `json:"pharmacyLatitude,omitempty"`
	PharmacyLongitude *float64 `json:"pharmacyLongitude,omitempty"`
}

func (PharmacistDetails) Kind() string { return RolePharmacist }
func (PharmacistDetails) roleDetails() {}

// NewRoleDetails returns the empty variant for role. An empty role maps to the patient variant.
func NewRoleDetails(role string) (RoleDetails, error) {
	switch role {
	case "", RoleUser:
		return &PatientDetails{}, nil
	case RoleDoctor:
		return &DoctorDetails{}, nil
	case RolePharmacist:
		return &PharmacistDetails{}, nil
	}
	return nil, fmt.Errorf("unknown role %q", role)
}

// DecodeRoleDetails rebuilds the variant for role from its stored JSON form
func DecodeRoleDetails(role string, raw []byte) (RoleDetails, error) {
	details, err := NewRoleDetails(role)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return details, nil
	}
	if err := json.Unmarshal(raw, details); err != nil {
		return nil, fmt.Errorf("failed to decode %s details: %w", details.Kind(), err)
	}
	return details, nil
}

// User represents a directory record (patient, doctor or pharmacist)
type User struct {
	ID                string
	QRCodeID          *string // nil until assigned, immutable afterwards
	FullName          string
	Email             string
	Phone             string
	Role              string // empty when the record has no role
	IsProfileComplete bool
	PasswordHash      string // never serialized
	Demographics      Demographics
	Location          *GeoPoint
	Details           RoleDetails
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EffectiveRole is the role used to pick the variant, records without a role count as users
func (u *User) EffectiveRole() string {
	if u.Role == "" {
		return RoleUser
	}
	return u.Role
}

type userJSON struct {
	ID                string    `json:"id"`
	QRCodeID          *string   `json:"qrCodeId,omitempty"`
	FullName          string    `json:"fullName"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Role              string    `json:"role,omitempty"`
	IsProfileComplete bool      `json:"isProfileComplete"`
	Location          *GeoPoint `json:"location,omitempty"`
	Demographics
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalJSON flattens the role variant next to the common fields, so a
// doctor record carries "specialization" at the top level.
func (u User) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(userJSON{
		ID:                u.ID,
		QRCodeID:          u.QRCodeID,
		FullName:          u.FullName,
		Email:             u.Email,
		Phone:             u.Phone,
		Role:              u.Role,
		IsProfileComplete: u.IsProfileComplete,
		Location:          u.Location,
		Demographics:      u.Demographics,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	if u.Details == nil {
		return base, nil
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	extra, err := json.Marshal(u.Details)
	if err != nil {
		return nil, err
	}
	var extraFields map[string]json.RawMessage
	if err := json.Unmarshal(extra, &extraFields); err != nil {
		return nil, err
	}
	for k, v := range extraFields {
		fields[k] = v
	}
	return json.Marshal(fields)
}

// QRInfo is what a mobile client needs to encode a user's QR code
type QRInfo struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Role     string `json:"role,omitempty"`
	QRCodeID string `json:"qrCodeId"`
	QRURL    string `json:"qrUrl"`
	Message  string `json:"message"`
}

// QRCode is a rendered QR code for a profile URL
type QRCode struct {
	QRCode     string `json:"qrCode"` // data:image/png;base64,...
	QRCodeID   string `json:"qrCodeId"`
	ProfileURL string `json:"profileUrl"`
}

// BackfillReport summarizes a GenerateMissingTokens run
type BackfillReport struct {
	Scanned  int                `json:"scanned"`
	Assigned int                `json:"assigned"`
	Tokens   []AssignedQRCodeID `json:"tokens"`
}

type AssignedQRCodeID struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Role     string `json:"role,omitempty"`
	QRCodeID string `json:"qrCodeId"`
}
