package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fiesta/internal/storage/blobstore"
)

func TestLoginLogout(t *testing.T) {
	session := NewSession("superadmin", "fiesta2025!", blobstore.NewMemoryStore())

	assert.False(t, session.LoggedIn())
	assert.False(t, session.Login("superadmin", "wrong"))
	assert.False(t, session.Login("someone", "fiesta2025!"))
	assert.False(t, session.LoggedIn())

	assert.True(t, session.Login("superadmin", "fiesta2025!"))
	assert.True(t, session.LoggedIn())

	session.Logout()
	assert.False(t, session.LoggedIn())
}

func TestSessionSurvivesRestart(t *testing.T) {
	persistence := blobstore.NewMemoryStore()

	session := NewSession("superadmin", "fiesta2025!", persistence)
	session.Login("superadmin", "fiesta2025!")

	restored := NewSession("superadmin", "fiesta2025!", persistence)
	assert.True(t, restored.LoggedIn())

	restored.Logout()
	assert.False(t, NewSession("superadmin", "fiesta2025!", persistence).LoggedIn())
}

func TestUnconfiguredCredentialsDisableLogin(t *testing.T) {
	session := NewSession("", "", blobstore.NewMemoryStore())
	assert.False(t, session.Login("", ""))
	assert.False(t, session.LoggedIn())
}
