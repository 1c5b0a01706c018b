package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"medilinko/internal/model"

	"github.com/gin-gonic/gin/binding"
)

// NormalizeForm turns the creation form into a CreateUserRequest. Empty
// inputs and inputs that belong to another role are dropped, list inputs are
// split on commas.
func NormalizeForm(form url.Values) (model.CreateUserRequest, error) {
	var req model.CreateUserRequest
	p := &req.UserPayload

	p.FullName = formString(form, "fullName")
	p.Email = formString(form, "email")
	p.Phone = formString(form, "phone")
	p.Role = formString(form, "role")
	p.DateOfBirth = formString(form, "dateOfBirth")
	p.Gender = formString(form, "gender")
	p.BloodGroup = formString(form, "bloodGroup")
	p.Address = formString(form, "address")
	p.Allergies = formList(form, "allergies")

	contact := model.EmergencyContact{
		Name:         strings.TrimSpace(form.Get("emergencyContactName")),
		Phone:        strings.TrimSpace(form.Get("emergencyContactPhone")),
		Relationship: strings.TrimSpace(form.Get("emergencyContactRelationship")),
	}
	if contact != (model.EmergencyContact{}) {
		p.EmergencyContact = &contact
	}

	var err error
	switch form.Get("role") {
	case model.RoleDoctor:
		p.Specialization = formString(form, "specialization")
		p.Qualification = formString(form, "qualification")
		p.ClinicName = formString(form, "clinicName")
		p.ClinicAddress = formString(form, "clinicAddress")
		if p.Experience, err = formInt(form, "experience"); err != nil {
			return req, err
		}
		if p.ConsultationFee, err = formFloat(form, "consultationFee"); err != nil {
			return req, err
		}
		if p.ClinicLatitude, err = formFloat(form, "clinicLatitude"); err != nil {
			return req, err
		}
		if p.ClinicLongitude, err = formFloat(form, "clinicLongitude"); err != nil {
			return req, err
		}
	case model.RolePharmacist:
		p.PharmacyName = formString(form, "pharmacyName")
		p.PharmacyAddress = formString(form, "pharmacyAddress")
		p.LicenseNumber = formString(form, "licenseNumber")
		p.Medicines = formList(form, "medicines")
		if p.PharmacyLatitude, err = formFloat(form, "pharmacyLatitude"); err != nil {
			return req, err
		}
		if p.PharmacyLongitude, err = formFloat(form, "pharmacyLongitude"); err != nil {
			return req, err
		}
	}

	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return req, err
	}
	return req, nil
}

func formString(form url.Values, key string) *string {
	v := strings.TrimSpace(form.Get(key))
	if v == "" {
		return nil
	}
	return &v
}

func formList(form url.Values, key string) []string {
	raw := strings.TrimSpace(form.Get(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func formInt(form url.Values, key string) (*int, error) {
	s := formString(form, key)
	if s == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(*s)
	if err != nil {
		return nil, fmt.Errorf("%s must be a whole number", key)
	}
	return &n, nil
}

func formFloat(form url.Values, key string) (*float64, error) {
	s := formString(form, key)
	if s == nil {
		return nil, nil
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &f, nil
}
