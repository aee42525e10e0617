package account

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coviddx/platform/internal/audit"
	"github.com/coviddx/platform/internal/audit/audittest"
	"github.com/coviddx/platform/internal/shared/auth"
	"github.com/coviddx/platform/internal/shared/config"
	"github.com/coviddx/platform/internal/shared/types"
)

func TestAccountActivation(t *testing.T) {
	account := Account{
		ID:      types.NewID(),
		Name:    "Dana Reyes",
		LoginID: "dreyes",
		Role:    RoleUser,
		Status:  StatusPending,
	}

	assert.False(t, account.IsActivated())

	account.Status = StatusActivated
	assert.True(t, account.IsActivated())
}

func TestValidateRegistration(t *testing.T) {
	valid := RegisterRequest{
		Name:     "Dana Reyes",
		LoginID:  "dreyes",
		Email:    "dreyes@example.org",
		Mobile:   "+1 555 0100",
		Password: "correct horse",
	}
	assert.Empty(t, validateRegistration(valid))

	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		field  string
	}{
		{"missing name", func(r *RegisterRequest) { r.Name = "" }, "name"},
		{"missing login", func(r *RegisterRequest) { r.LoginID = "" }, "login_id"},
		{"missing email", func(r *RegisterRequest) { r.Email = "" }, "email"},
		{"missing mobile", func(r *RegisterRequest) { r.Mobile = "" }, "mobile"},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			details := validateRegistration(req)
			assert.Contains(t, details, tt.field)
		})
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("correct horse")))
	assert.Error(t, bcrypt.CompareHashAndPassword(hash, []byte("wrong horse")))
}

func TestPasswordHashNeverSerialized(t *testing.T) {
	account := Account{
		ID:           types.NewID(),
		Name:         "Dana Reyes",
		PasswordHash: "$2a$10$secret",
	}

	data, err := json.Marshal(account)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "password")
}

func TestIssuedTokenCarriesRole(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "test-secret", TokenTTLMinutes: 30}
	id := types.NewID()

	token, err := auth.IssueToken(cfg, id, "Dana Reyes", "dreyes", string(RoleAdmin))
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAccountActionsEnterAuditChain(t *testing.T) {
	trail := &audittest.Log{}
	h := NewHandler(nil, nil, trail, config.AuthConfig{})

	accountID := types.NewID()
	adminID := types.NewID()

	h.record(context.Background(), accountID, string(RoleUser), audit.ActionAccountRegistered, accountID, map[string]any{"login_id": "dreyes"})
	h.record(context.Background(), adminID, auth.RoleAdmin, audit.ActionAccountActivated, accountID, nil)
	h.record(context.Background(), accountID, string(RoleUser), audit.ActionAccountLogin, accountID, nil)

	entries, err := trail.List(context.Background(), audit.ListFilter{Resource: "account"})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, audit.ActionAccountRegistered, entries[0].Action)
	assert.Equal(t, "dreyes", entries[0].Details["login_id"])
	assert.Equal(t, adminID, entries[1].ActorID)
	require.NotNil(t, entries[2].ResourceID)
	assert.Equal(t, accountID, *entries[2].ResourceID)

	broken, err := trail.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(-1), broken)
}

func TestAccountRecordWithoutAuditLog(t *testing.T) {
	h := NewHandler(nil, nil, nil, config.AuthConfig{})

	// No audit log configured; recording is a no-op.
	h.record(context.Background(), types.NewID(), auth.RoleAdmin, audit.ActionAccountActivated, types.NewID(), nil)
}
