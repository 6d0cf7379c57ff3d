package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-admin/internal/config"
	"clinic-admin/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.AuthConfig{
		IdentityURL:    srv.URL,
		ServiceRoleKey: "service-key",
		AnonKey:        "anon-key",
	})
}

func TestClient_CreateUser(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/admin/users", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new@x.test", body["email"])
		assert.Equal(t, true, body["email_confirm"])

		json.NewEncoder(w).Encode(map[string]any{"id": "u-new", "email": "new@x.test"})
	}))

	u, err := client.CreateUser(context.Background(), "new@x.test", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u-new", u.ID)
	assert.Equal(t, "Bearer service-key", gotAuth)
}

func TestClient_CreateUserDuplicate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{"msg": "A user with this email address has already been registered"})
	}))

	_, err := client.CreateUser(context.Background(), "dup@x.test", "pw")
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestClient_CreateUserUpstreamFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"msg": "database unavailable"})
	}))

	_, err := client.CreateUser(context.Background(), "x@x.test", "pw")
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.NotErrorIs(t, err, ErrEmailExists)
}

func TestClient_GetUserByEmail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/users", r.URL.Path)
		assert.Equal(t, "who@x.test", r.URL.Query().Get("email"))
		json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]any{
				{"id": "u-other", "email": "other@x.test"},
				{"id": "u-1", "email": "Who@x.test"},
			},
		})
	}))

	u, err := client.GetUserByEmail(context.Background(), "Who@x.test")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u-1", u.ID)
}

func TestClient_GetUserByEmailMissing(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"users": []map[string]any{}})
	}))

	u, err := client.GetUserByEmail(context.Background(), "nobody@x.test")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestClient_UpdateUserMetadataMerges(t *testing.T) {
	var updated map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"id":            "u-1",
				"email":         "x@x.test",
				"app_metadata":  map[string]any{"provider": "email", "role": "employee"},
				"user_metadata": map[string]any{"theme": "dark"},
			})
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("{}"))
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))

	err := client.UpdateUserMetadata(context.Background(), "u-1",
		map[string]any{"role": "admin", "account_id": "acc-1"},
		map[string]any{"account_id": "acc-1"})
	require.NoError(t, err)

	appMeta := updated["app_metadata"].(map[string]any)
	// Existing keys survive, updated keys win.
	assert.Equal(t, "email", appMeta["provider"])
	assert.Equal(t, "admin", appMeta["role"])
	assert.Equal(t, "acc-1", appMeta["account_id"])

	userMeta := updated["user_metadata"].(map[string]any)
	assert.Equal(t, "dark", userMeta["theme"])
	assert.Equal(t, "acc-1", userMeta["account_id"])
}

func TestClient_UserFromToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user", r.URL.Path)
		assert.Equal(t, "Bearer caller-token", r.Header.Get("Authorization"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		json.NewEncoder(w).Encode(map[string]any{
			"id":           "u-1",
			"email":        "caller@x.test",
			"app_metadata": map[string]any{"role": "SuperAdmin"},
		})
	}))

	u, err := client.UserFromToken(context.Background(), "caller-token")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "superadmin", u.RoleClaim())
}

func TestClient_UserFromTokenRejected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.UserFromToken(context.Background(), "expired-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = client.UserFromToken(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidToken)
}
