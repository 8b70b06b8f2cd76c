package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/search"
	"github.com/goto/vfsearch/core/user"
)

type Engine struct {
	mock.Mock
}

func (e *Engine) Execute(ctx context.Context, q search.EngineQuery) (search.EngineResponse, error) {
	args := e.Called(ctx, q)
	return args.Get(0).(search.EngineResponse), args.Error(1)
}

func (e *Engine) FetchDocument(ctx context.Context, id string) (document.Document, error) {
	args := e.Called(ctx, id)
	doc, _ := args.Get(0).(document.Document)
	return doc, args.Error(1)
}

type PermissionResolver struct {
	mock.Mock
}

func (r *PermissionResolver) HasReadPermission(ctx context.Context, usr user.User, path, resourceType string) (bool, error) {
	args := r.Called(ctx, usr, path, resourceType)
	return args.Bool(0), args.Error(1)
}
