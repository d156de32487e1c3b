package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUserID(t *testing.T) {
	id := NewUserID()
	assert.True(t, strings.HasPrefix(id, "USR_"), "unexpected format: %s", id)
	assert.Len(t, id, len("USR_")+12)
	assert.Equal(t, strings.ToUpper(id), id)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		next := NewUserID()
		assert.False(t, seen[next], "duplicate user id %s", next)
		seen[next] = true
	}
}
