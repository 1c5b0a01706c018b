package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medilinko/internal/model"
	"medilinko/internal/repository"
	"medilinko/internal/utils"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrValidation    = errors.New("validation failed")
	ErrQRCodeMissing = errors.New("user does not have a QR code yet")
)

// maxTokenAttempts bounds regeneration after a QR token collision
const maxTokenAttempts = 3

// TokenGenerator produces public QR tokens
type TokenGenerator interface {
	Generate(role string) string
}

// UserService defines directory operations over user records
type UserService interface {
	ListUsers(ctx context.Context, filters model.UserFilters) ([]model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByQRCodeID(ctx context.Context, qrCodeID string) (*model.User, error)
	CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error)
	UpdateUser(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, id string) (*model.User, error)
}

type userService struct {
	repo   repository.UserRepository
	tokens TokenGenerator
}

// NewUserService creates a new UserService
func NewUserService(repo repository.UserRepository, tokens TokenGenerator) UserService {
	return &userService{repo: repo, tokens: tokens}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func (s *userService) ListUsers(ctx context.Context, filters model.UserFilters) ([]model.User, error) {
	if filters.Role != nil && *filters.Role != "" && !model.IsRecordRole(*filters.Role) {
		return nil, validationError("unknown role %q", *filters.Role)
	}
	users, err := s.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users from repo: %w", err)
	}
	return users, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) GetUserByQRCodeID(ctx context.Context, qrCodeID string) (*model.User, error) {
	user, err := s.repo.FindByQRCodeID(ctx, qrCodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by QR code ID: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	name := req.ResolvedFullName()
	if name == nil || strings.TrimSpace(*name) == "" {
		return nil, validationError("fullName is required")
	}

	role := ""
	if req.Role != nil {
		role = *req.Role
		if !model.IsRecordRole(role) {
			return nil, validationError("unknown role %q", role)
		}
	}
	details, err := model.NewRoleDetails(role)
	if err != nil {
		return nil, validationError("%v", err)
	}

	user := &model.User{Role: role, Details: details}
	if err := applyPayload(user, &req.UserPayload); err != nil {
		return nil, err
	}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token := s.tokens.Generate(user.Role)
		user.QRCodeID = &token

		err = s.repo.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrDuplicateQRCodeID) {
			return nil, fmt.Errorf("failed to create user in repo: %w", err)
		}
	}
	return nil, fmt.Errorf("failed to create user: no unique QR code ID after %d attempts", maxTokenAttempts)
}

func (s *userService) UpdateUser(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for update: %w", err)
	}
	if existing == nil {
		return nil, ErrUserNotFound
	}

	if name := req.ResolvedFullName(); name != nil && strings.TrimSpace(*name) == "" {
		return nil, validationError("fullName cannot be empty")
	}

	// A role change starts the new variant from scratch
	if req.Role != nil && *req.Role != existing.Role {
		if !model.IsRecordRole(*req.Role) {
			return nil, validationError("unknown role %q", *req.Role)
		}
		existing.Role = *req.Role
		existing.Details, err = model.NewRoleDetails(existing.Role)
		if err != nil {
			return nil, validationError("%v", err)
		}
	}
	if existing.Details == nil {
		existing.Details, _ = model.NewRoleDetails(existing.Role)
	}

	if err := applyPayload(existing, &req.UserPayload); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNoRecord) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user in repo: %w", err)
	}
	return existing, nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete user in repo: %w", err)
	}
	if deleted == nil {
		return nil, ErrUserNotFound
	}
	return deleted, nil
}

// applyPayload merges the provided fields of p into user. Fields that belong
// to a different role than the user's are rejected.
func applyPayload(user *model.User, p *model.UserPayload) error {
	role := user.EffectiveRole()
	if fields := p.DoctorFields(); len(fields) > 0 && role != model.RoleDoctor {
		return validationError("%s only valid for role doctor", strings.Join(fields, ", "))
	}
	if fields := p.PharmacistFields(); len(fields) > 0 && role != model.RolePharmacist {
		return validationError("%s only valid for role pharmacist", strings.Join(fields, ", "))
	}
	if p.Location != nil {
		if err := validateLocation(p.Location); err != nil {
			return err
		}
	}

	if name := p.ResolvedFullName(); name != nil {
		user.FullName = strings.TrimSpace(*name)
	}
	if p.Email != nil {
		user.Email = strings.TrimSpace(*p.Email)
	}
	if p.Phone != nil {
		user.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.IsProfileComplete != nil {
		user.IsProfileComplete = *p.IsProfileComplete
	}
	if p.Location != nil {
		loc := *p.Location
		loc.Type = "Point"
		user.Location = &loc
	}

	demo := &user.Demographics
	if p.DateOfBirth != nil {
		demo.DateOfBirth = *p.DateOfBirth
	}
	if p.Gender != nil {
		demo.Gender = *p.Gender
	}
	if p.BloodGroup != nil {
		demo.BloodGroup = *p.BloodGroup
	}
	if p.Address != nil {
		demo.Address = *p.Address
	}
	if p.EmergencyContact != nil {
		contact := *p.EmergencyContact
		demo.EmergencyContact = &contact
	}
	if p.Allergies != nil {
		demo.Allergies = cleanList(p.Allergies)
	}

	switch d := user.Details.(type) {
	case *model.DoctorDetails:
		if p.Specialization != nil {
			d.Specialization = *p.Specialization
		}
		if p.Qualification != nil {
			d.Qualification = *p.Qualification
		}
		if p.Experience != nil {
			d.Experience = p.Experience
		}
		if p.ClinicName != nil {
			d.ClinicName = *p.ClinicName
		}
		if p.ClinicAddress != nil {
			d.ClinicAddress = *p.ClinicAddress
		}
		if p.ConsultationFee != nil {
			d.ConsultationFee = p.ConsultationFee
		}
		if p.ClinicLatitude != nil {
			d.ClinicLatitude = p.ClinicLatitude
		}
		if p.ClinicLongitude != nil {
			d.ClinicLongitude = p.ClinicLongitude
		}
	case *model.PharmacistDetails:
		if p.PharmacyName != nil {
			d.PharmacyName = *p.PharmacyName
		}
		if p.PharmacyAddress != nil {
			d.PharmacyAddress = *p.PharmacyAddress
		}
		if p.LicenseNumber != nil {
			d.LicenseNumber = *p.LicenseNumber
		}
		if p.Medicines != nil {
			d.Medicines = cleanList(p.Medicines)
		}
		if p.PharmacyLatitude != nil {
			d.PharmacyLatitude = p.PharmacyLatitude
		}
		if p.PharmacyLongitude != nil {
			d.PharmacyLongitude = p.PharmacyLongitude
		}
	}
	return nil
}

func validateLocation(loc *model.GeoPoint) error {
	if loc.Type != "" && loc.Type != "Point" {
		return validationError("location type must be Point")
	}
	if len(loc.Coordinates) != 2 {
		return validationError("location coordinates must be [longitude, latitude]")
	}
	lon, lat := loc.Coordinates[0], loc.Coordinates[1]
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return validationError("location coordinates out of range")
	}
	return nil
}

// cleanList trims entries and drops empty ones
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
