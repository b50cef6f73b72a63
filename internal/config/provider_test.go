package config_test

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lc/hostlook/internal/config"
	"github.com/lc/hostlook/internal/mocks"
)

func TestLoadSurfacesOpenError(t *testing.T) {
	fs := new(mocks.MockOsFS)
	fs.On("Stat", "test").Return(nil, os.ErrNotExist)
	fs.On("MkdirAll", "test", os.FileMode(0o755)).Return(nil)
	fs.On("Open", "test/config.yaml").Return(nil, errors.New("permission denied"))

	provider := config.NewWithPath(fs, "test/config.yaml")

	_, err := provider.Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "opening config file")
	fs.AssertExpectations(t)
}

func TestLoadSkipsMkdirWhenDirExists(t *testing.T) {
	fs := new(mocks.MockOsFS)
	fs.On("Stat", "test").Return(nil, nil)
	fs.On("Open", "test/config.yaml").Return(nil, os.ErrNotExist)

	provider := config.NewWithPath(fs, "test/config.yaml")

	cfg, err := provider.Load()
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
	fs.AssertNotCalled(t, "MkdirAll", mock.Anything, mock.Anything)
}
