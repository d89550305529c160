package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"settingsapi/internal/model"
	"settingsapi/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) List(ctx context.Context, userID string) (*service.DocumentListResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Upload(ctx context.Context, userID string, files []service.Upload, meta service.UploadMeta) ([]model.Document, error) {
	args := m.Called(ctx, userID, files, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, userID, documentID string) error {
	args := m.Called(ctx, userID, documentID)
	return args.Error(0)
}

func (m *MockDocumentService) Download(ctx context.Context, userID, documentID string) (*service.Download, error) {
	args := m.Called(ctx, userID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Download), args.Error(1)
}

func (m *MockDocumentService) PresignDownload(ctx context.Context, userID, documentID string) (string, error) {
	args := m.Called(ctx, userID, documentID)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) UploadProfilePicture(ctx context.Context, userID string, file service.Upload) (*model.Settings, error) {
	args := m.Called(ctx, userID, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Settings), args.Error(1)
}

func (m *MockDocumentService) DownloadProfilePicture(ctx context.Context, userID string) (*service.Download, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Download), args.Error(1)
}
