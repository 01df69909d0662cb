package models

import (
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_Empty(t *testing.T) {
	assert.True(t, Tokens{}.Empty())
	assert.True(t, Tokens{CSRFToken: "x"}.Empty())
	assert.False(t, Tokens{RefreshToken: "r"}.Empty())
}

func TestUser_DecodesExtendedInfo(t *testing.T) {
	var u User
	err := json.Unmarshal([]byte(`{"username":"alice","email":"a@b.io","date_of_birth":"2000-01-01","age":26,"is_adult":true}`), &u)
	require.NoError(t, err)

	require.NotNil(t, u.DateOfBirth)
	assert.Equal(t, timex.NewDate(2000, 1, 1), *u.DateOfBirth)
	require.NotNil(t, u.Age)
	assert.Equal(t, 26, *u.Age)
	require.NotNil(t, u.IsAdult)
	assert.True(t, *u.IsAdult)
}
