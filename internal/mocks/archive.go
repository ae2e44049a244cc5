package mocks

import (
	"context"

	"github.com/brettbedarf/resmgr"
	"github.com/stretchr/testify/mock"
)

// MockArchive implements resmgr.Archive for testing across packages
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Fetch(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)

	// Handle function return types (for blocking or context-aware tests)
	if fn, ok := args.Get(0).(func(context.Context, string) []byte); ok {
		return fn(ctx, path), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockArchive) List(mask string) ([]string, error) {
	args := m.Called(mask)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockArchive) Hash(path string) uint64 {
	args := m.Called(path)
	return args.Get(0).(uint64)
}

func (m *MockArchive) HashToString(hash uint64) (string, bool) {
	args := m.Called(hash)
	return args.String(0), args.Bool(1)
}

func (m *MockArchive) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ resmgr.Archive = (*MockArchive)(nil)

// MockDecoder implements resmgr.Decoder for testing across packages
type MockDecoder struct {
	mock.Mock
}

func (m *MockDecoder) Decode(path string, data []byte) (any, error) {
	args := m.Called(path, data)

	// Handle function return types (for complex tests)
	if fn, ok := args.Get(0).(func(string, []byte) any); ok {
		return fn(path, data), args.Error(1)
	}
	return args.Get(0), args.Error(1)
}

var _ resmgr.Decoder = (*MockDecoder)(nil)
