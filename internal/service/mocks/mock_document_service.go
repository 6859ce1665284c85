package mocks

import (
	"context"

	"github.com/duongtx90/markdown-viewer/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Create(ctx context.Context, in service.CreateInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) Retrieve(ctx context.Context, id, password string) (*service.DocumentContent, error) {
	args := m.Called(ctx, id, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentContent), args.Error(1)
}
