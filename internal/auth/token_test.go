package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-api/internal/policy"
)

var testSecret = []byte("test-secret")

func TestTokenRoundTrip(t *testing.T) {
	doctorID := uuid.New()
	actor := policy.Actor{
		UserID:   uuid.New(),
		Role:     policy.RoleDoctor,
		DoctorID: &doctorID,
	}

	raw, err := IssueToken(testSecret, actor, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken(testSecret, raw)
	require.NoError(t, err)

	assert.Equal(t, actor.UserID, parsed.UserID)
	assert.Equal(t, policy.RoleDoctor, parsed.Role)
	require.NotNil(t, parsed.DoctorID)
	assert.Equal(t, doctorID, *parsed.DoctorID)
}

func TestTokenWithoutDoctorLink(t *testing.T) {
	actor := policy.Actor{UserID: uuid.New(), Role: policy.RoleReceptionist}

	raw, err := IssueToken(testSecret, actor, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken(testSecret, raw)
	require.NoError(t, err)
	assert.Nil(t, parsed.DoctorID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	actor := policy.Actor{UserID: uuid.New(), Role: policy.RoleAdmin}

	raw, err := IssueToken(testSecret, actor, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken([]byte("other-secret"), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	actor := policy.Actor{UserID: uuid.New(), Role: policy.RoleAdmin}

	raw, err := IssueToken(testSecret, actor, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseToken(testSecret, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret-pass"))
	assert.Error(t, CheckPassword(hash, "wrong-pass"))
}
