package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/goto/vfsearch/core/document"
)

type Backend struct {
	mock.Mock
}

func (b *Backend) Submit(ctx context.Context, docs []document.Document) error {
	args := b.Called(ctx, docs)
	return args.Error(0)
}

func (b *Backend) DeleteByID(ctx context.Context, id string) error {
	args := b.Called(ctx, id)
	return args.Error(0)
}

func (b *Backend) DeleteAll(ctx context.Context) error {
	args := b.Called(ctx)
	return args.Error(0)
}

func (b *Backend) Optimize(ctx context.Context) error {
	args := b.Called(ctx)
	return args.Error(0)
}

func (b *Backend) Commit(ctx context.Context) error {
	args := b.Called(ctx)
	return args.Error(0)
}

func (b *Backend) FetchDocument(ctx context.Context, id string) (document.Document, error) {
	args := b.Called(ctx, id)
	doc, _ := args.Get(0).(document.Document)
	return doc, args.Error(1)
}
