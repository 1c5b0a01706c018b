package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"medilinko/internal/model"
	"medilinko/internal/repository"
	"medilinko/internal/utils"
)

// ProfilePathPrefix is the web route that shows a profile by QR token
const ProfilePathPrefix = "/profile/"

// QRService derives profile URLs from QR tokens, renders them and keeps tokens assigned
type QRService interface {
	ProfileURL(qrCodeID string) string
	RenderPNG(content string, opts utils.QROptions) ([]byte, error)
	GenerateForUser(ctx context.Context, userID string) (*model.QRCode, error)
	GenerateForQRCodeID(ctx context.Context, qrCodeID string) (*model.QRCode, error)
	ImageForQRCodeID(ctx context.Context, qrCodeID string, opts utils.QROptions) ([]byte, error)
	GetQRInfo(ctx context.Context, userID string) (*model.QRInfo, error)
	GenerateMissingTokens(ctx context.Context) (*model.BackfillReport, error)
}

type qrService struct {
	repo   repository.UserRepository
	tokens TokenGenerator
	webURL string
}

// NewQRService creates a new QRService; webURL is the public origin of the web pages
func NewQRService(repo repository.UserRepository, tokens TokenGenerator, webURL string) QRService {
	return &qrService{repo: repo, tokens: tokens, webURL: strings.TrimRight(webURL, "/")}
}

func (s *qrService) ProfileURL(qrCodeID string) string {
	return s.webURL + ProfilePathPrefix + url.PathEscape(qrCodeID)
}

func (s *qrService) RenderPNG(content string, opts utils.QROptions) ([]byte, error) {
	img, err := utils.RenderQRPNG(content, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return img, nil
}

func (s *qrService) render(user *model.User) (*model.QRCode, error) {
	if user.QRCodeID == nil {
		return nil, ErrQRCodeMissing
	}
	profileURL := s.ProfileURL(*user.QRCodeID)
	img, err := utils.RenderQRPNG(profileURL, utils.DefaultQROptions)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return &model.QRCode{
		QRCode:     utils.PNGDataURL(img),
		QRCodeID:   *user.QRCodeID,
		ProfileURL: profileURL,
	}, nil
}

func (s *qrService) GenerateForUser(ctx context.Context, userID string) (*model.QRCode, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for QR code: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.render(user)
}

func (s *qrService) GenerateForQRCodeID(ctx context.Context, qrCodeID string) (*model.QRCode, error) {
	user, err := s.repo.FindByQRCodeID(ctx, qrCodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for QR code: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.render(user)
}

func (s *qrService) ImageForQRCodeID(ctx context.Context, qrCodeID string, opts utils.QROptions) ([]byte, error) {
	user, err := s.repo.FindByQRCodeID(ctx, qrCodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for QR image: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.RenderPNG(s.ProfileURL(qrCodeID), opts)
}

func (s *qrService) GetQRInfo(ctx context.Context, userID string) (*model.QRInfo, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for QR info: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.QRCodeID == nil {
		return nil, ErrQRCodeMissing
	}
	return &model.QRInfo{
		UserID:   user.ID,
		FullName: user.FullName,
		Role:     user.Role,
		QRCodeID: *user.QRCodeID,
		QRURL:    s.ProfileURL(*user.QRCodeID),
		Message:  "Encode this qrUrl in the QR code for the user",
	}, nil
}

// GenerateMissingTokens assigns a token to every record that has none.
// Records that already carry a token are never selected nor rewritten.
func (s *qrService) GenerateMissingTokens(ctx context.Context) (*model.BackfillReport, error) {
	users, err := s.repo.FindMissingQRCodeID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find users without QR code: %w", err)
	}

	report := &model.BackfillReport{Scanned: len(users), Tokens: []model.AssignedQRCodeID{}}
	log.Printf("Found %d users without QR codes", len(users))

	for _, u := range users {
		token, err := s.assign(ctx, &u)
		if err != nil {
			return report, err
		}
		if token == "" {
			continue
		}
		report.Assigned++
		report.Tokens = append(report.Tokens, model.AssignedQRCodeID{
			UserID:   u.ID,
			FullName: u.FullName,
			Role:     u.Role,
			QRCodeID: token,
		})
		log.Printf("Generated QR for: %s (%s) -> %s", u.FullName, u.EffectiveRole(), token)
	}
	return report, nil
}

// assign returns the token written for u, or "" when u got one concurrently or was deleted
func (s *qrService) assign(ctx context.Context, u *model.User) (string, error) {
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token := s.tokens.Generate(u.Role)
		ok, err := s.repo.AssignQRCodeID(ctx, u.ID, token)
		if errors.Is(err, repository.ErrDuplicateQRCodeID) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to assign QR code to user %s: %w", u.ID, err)
		}
		if !ok {
			return "", nil
		}
		return token, nil
	}
	return "", fmt.Errorf("no unique QR code ID for user %s after %d attempts", u.ID, maxTokenAttempts)
}
