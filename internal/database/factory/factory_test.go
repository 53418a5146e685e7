package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/natours/internal/database/interfaces"
	platformconfig "github.com/qolzam/natours/internal/platform/config"
)

func TestConnectRejectsUnknownType(t *testing.T) {
	_, err := Connect(context.Background(), platformconfig.DatabaseConfig{Type: "sqlite"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestNewCollectionNeedsConnection(t *testing.T) {
	_, err := NewCollection[struct{}](nil, "tours", interfaces.Schema{})
	require.Error(t, err)

	_, err = NewCollection[struct{}](&Backend{Type: "mongodb"}, "tours", interfaces.Schema{})
	require.Error(t, err)
	assert.NoError(t, (&Backend{}).Close(context.Background()))
}
