package handler

import (
	"context"

	"medilinko/internal/model"
	"medilinko/internal/service"
	"medilinko/internal/utils"
)

var (
	_ service.UserService = (*fakeUserService)(nil)
	_ service.QRService   = (*fakeQRService)(nil)
	_ service.AuthService = (*fakeAuthService)(nil)
)

type fakeUserService struct {
	ListFn     func(ctx context.Context, filters model.UserFilters) ([]model.User, error)
	GetFn      func(ctx context.Context, id string) (*model.User, error)
	GetByQRFn  func(ctx context.Context, qrCodeID string) (*model.User, error)
	CreateFn   func(ctx context.Context, req model.CreateUserRequest) (*model.User, error)
	UpdateFn   func(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error)
	DeleteFn   func(ctx context.Context, id string) (*model.User, error)
	CreateHits int
	UpdateHits int
}

func (f *fakeUserService) ListUsers(ctx context.Context, filters model.UserFilters) ([]model.User, error) {
	return f.ListFn(ctx, filters)
}

func (f *fakeUserService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return f.GetFn(ctx, id)
}

func (f *fakeUserService) GetUserByQRCodeID(ctx context.Context, qrCodeID string) (*model.User, error) {
	return f.GetByQRFn(ctx, qrCodeID)
}

func (f *fakeUserService) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	f.CreateHits++
	return f.CreateFn(ctx, req)
}

func (f *fakeUserService) UpdateUser(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error) {
	f.UpdateHits++
	return f.UpdateFn(ctx, id, req)
}

func (f *fakeUserService) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	return f.DeleteFn(ctx, id)
}

type fakeQRService struct {
	BaseURL    string
	ForUserFn  func(ctx context.Context, userID string) (*model.QRCode, error)
	ForQRIDFn  func(ctx context.Context, qrCodeID string) (*model.QRCode, error)
	ImageFn    func(ctx context.Context, qrCodeID string, opts utils.QROptions) ([]byte, error)
	InfoFn     func(ctx context.Context, userID string) (*model.QRInfo, error)
	BackfillFn func(ctx context.Context) (*model.BackfillReport, error)
}

func (f *fakeQRService) ProfileURL(qrCodeID string) string {
	return f.BaseURL + service.ProfilePathPrefix + qrCodeID
}

func (f *fakeQRService) RenderPNG(content string, opts utils.QROptions) ([]byte, error) {
	return []byte("png:" + content), nil
}

func (f *fakeQRService) GenerateForUser(ctx context.Context, userID string) (*model.QRCode, error) {
	return f.ForUserFn(ctx, userID)
}

func (f *fakeQRService) GenerateForQRCodeID(ctx context.Context, qrCodeID string) (*model.QRCode, error) {
	return f.ForQRIDFn(ctx, qrCodeID)
}

func (f *fakeQRService) ImageForQRCodeID(ctx context.Context, qrCodeID string, opts utils.QROptions) ([]byte, error) {
	return f.ImageFn(ctx, qrCodeID, opts)
}

func (f *fakeQRService) GetQRInfo(ctx context.Context, userID string) (*model.QRInfo, error) {
	return f.InfoFn(ctx, userID)
}

func (f *fakeQRService) GenerateMissingTokens(ctx context.Context) (*model.BackfillReport, error) {
	return f.BackfillFn(ctx)
}

type fakeAuthService struct {
	LoginFn func(ctx context.Context, email, password string) (*model.User, string, error)
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	return f.LoginFn(ctx, email, password)
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error { return p.err }
