package favorite

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSavedProperty(t *testing.T) {
	user, prop := uuid.New(), uuid.New()
	s, err := NewSavedProperty(user, prop)
	require.NoError(t, err)
	assert.Equal(t, user, s.UserID)
	assert.Equal(t, prop, s.PropertyID)
	assert.NotEqual(t, uuid.Nil, s.ID)

	_, err = NewSavedProperty(uuid.Nil, prop)
	assert.Error(t, err)
	_, err = NewSavedProperty(user, uuid.Nil)
	assert.Error(t, err)
}
