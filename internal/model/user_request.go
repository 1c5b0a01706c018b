package model

// UserPayload is the strict schema for create and update bodies.
// Pointers distinguish "not provided" from zero values for partial updates.
type UserPayload struct {
	FullName          *string   `json:"fullName" binding:"omitempty,max=200"`
	Name              *string   `json:"name" binding:"omitempty,max=200"` // alias of fullName sent by older clients
	Email             *string   `json:"email" binding:"omitempty,email"`
	Phone             *string   `json:"phone" binding:"omitempty,max=32"`
	Role              *string   `json:"role" binding:"omitempty,oneof=user doctor pharmacist"`
	IsProfileComplete *bool     `json:"isProfileComplete"`
	Location          *GeoPoint `json:"location"`

	DateOfBirth      *string           `json:"dateOfBirth"`
	Gender           *string           `json:"gender"`
	BloodGroup       *string           `json:"bloodGroup"`
	Address          *string           `json:"address"`
	EmergencyContact *EmergencyContact `json:"emergencyContact"`
	Allergies        []string          `json:"allergies"`

	// doctor
	Specialization  *string  `json:"specialization"`
	Qualification   *string  `json:"qualification"`
	Experience      *int     `json:"experience" binding:"omitempty,min=0"`
	ClinicName      *string  `json:"clinicName"`
	ClinicAddress   *string  `json:"clinicAddress"`
	ConsultationFee *float64 `json:"consultationFee" binding:"omitempty,min=0"`
	ClinicLatitude  *float64 `json:"clinicLatitude" binding:"omitempty,min=-90,max=90"`
	ClinicLongitude *float64 `json:"clinicLongitude" binding:"omitempty,min=-180,max=180"`

	// pharmacist
	PharmacyName      *string  `json:"pharmacyName"`
	PharmacyAddress   *string  `json:"pharmacyAddress"`
	LicenseNumber     *string  `json:"licenseNumber"`
	Medicines         []string `json:"medicines"`
	PharmacyLatitude  *float64 `json:"pharmacyLatitude" binding:"omitempty,min=-90,max=90"`
	PharmacyLongitude *float64 `json:"pharmacyLongitude" binding:"omitempty,min=-180,max=180"`
}

// CreateUserRequest is the body of POST /api/users. A password can only be
// set here; the open update route never accepts one.
type CreateUserRequest struct {
	UserPayload
	Password *string `json:"password" binding:"omitempty,min=6"`
}

// UpdateUserRequest is the body of PUT /api/users/:id
type UpdateUserRequest struct {
	UserPayload
}

// ResolvedFullName returns fullName, falling back to the name alias
func (p *UserPayload) ResolvedFullName() *string {
	if p.FullName != nil {
		return p.FullName
	}
	return p.Name
}

// DoctorFields lists the doctor-only fields present in the payload
func (p *UserPayload) DoctorFields() []string {
	var set []string
	if p.Specialization != nil {
		set = append(set, "specialization")
	}
	if p.Qualification != nil {
		set = append(set, "qualification")
	}
	if p.Experience != nil {
		set = append(set, "experience")
	}
	if p.ClinicName != nil {
		set = append(set, "clinicName")
	}
	if p.ClinicAddress != nil {
		set = append(set, "clinicAddress")
	}
	if p.ConsultationFee != nil {
		set = append(set, "consultationFee")
	}
	if p.ClinicLatitude != nil {
		set = append(set, "clinicLatitude")
	}
	if p.ClinicLongitude != nil {
		set = append(set, "clinicLongitude")
	}
	return set
}

// PharmacistFields lists the pharmacist-only fields present in the payload
func (p *UserPayload) PharmacistFields() []string {
	var set []string
	if p.PharmacyName != nil {
		set = append(set, "pharmacyName")
	}
	if p.PharmacyAddress != nil {
		set = append(set, "pharmacyAddress")
	}
	if p.LicenseNumber != nil {
		set = append(set, "licenseNumber")
	}
	if p.Medicines != nil {
		set = append(set, "medicines")
	}
	if p.PharmacyLatitude != nil {
		set = append(set, "pharmacyLatitude")
	}
	if p.PharmacyLongitude != nil {
		set = append(set, "pharmacyLongitude")
	}
	return set
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserFilters contains filter parameters for directory listings
type UserFilters struct {
	Role *string
}
