package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/goto/vfsearch/core/resource"
)

type ResourceRepository struct {
	mock.Mock
}

func (repo *ResourceRepository) GetByPath(ctx context.Context, path string) (resource.Resource, error) {
	args := repo.Called(ctx, path)
	return args.Get(0).(resource.Resource), args.Error(1)
}

func (repo *ResourceRepository) GetAll(ctx context.Context, flt resource.Filter) ([]resource.Resource, error) {
	args := repo.Called(ctx, flt)
	return args.Get(0).([]resource.Resource), args.Error(1)
}

func (repo *ResourceRepository) Upsert(ctx context.Context, r resource.Resource) (string, error) {
	args := repo.Called(ctx, r)
	return args.String(0), args.Error(1)
}

func (repo *ResourceRepository) DeleteByPath(ctx context.Context, path string) error {
	args := repo.Called(ctx, path)
	return args.Error(0)
}

func (repo *ResourceRepository) HasType(ctx context.Context, name string) (bool, error) {
	args := repo.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (repo *ResourceRepository) RegisterType(ctx context.Context, name string) error {
	args := repo.Called(ctx, name)
	return args.Error(0)
}
