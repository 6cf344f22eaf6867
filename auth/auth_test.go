package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramsy/db"
	"ramsy/idgen"
)

func newHandler() (*Handler, *db.Mem) {
	mem := db.NewMem()
	return NewHandler(mem.Users, idgen.New(mem.Users, mem.Recipes), nil), mem
}

func postJSON(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
}

func TestRegisterAndLogin(t *testing.T) {
	h, mem := newHandler()

	rr := httptest.NewRecorder()
	h.Register(rr, postJSON(t, map[string]string{"nickname": "gordon", "password": "secret"}), nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		UserID int `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.GreaterOrEqual(t, created.UserID, 100000)
	assert.Less(t, created.UserID, 1000000)

	stored, err := mem.Users.GetByNickname(context.Background(), "gordon")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", stored.CryptPassword, "password must be stored as a digest")

	rr = httptest.NewRecorder()
	h.Login(rr, postJSON(t, map[string]string{"nickname": "gordon", "password": "secret"}), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var login struct {
		Token  string `json:"token"`
		UserID int    `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, created.UserID, login.UserID)
}

func TestRegisterExistingNickname(t *testing.T) {
	h, _ := newHandler()

	rr := httptest.NewRecorder()
	h.Register(rr, postJSON(t, map[string]string{"nickname": "gordon", "password": "secret"}), nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	h.Register(rr, postJSON(t, map[string]string{"nickname": "gordon", "password": "other"}), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "already exists")
}

func TestRegisterReportsAllMissingFields(t *testing.T) {
	h, _ := newHandler()

	rr := httptest.NewRecorder()
	h.Register(rr, postJSON(t, map[string]string{}), nil)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var errs []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errs))
	require.Len(t, errs, 2, "both missing fields reported together")
	assert.Equal(t, "nickname", errs[0].Field)
	assert.Equal(t, "password", errs[1].Field)
}

func TestRegisterRejectsBadNickname(t *testing.T) {
	h, _ := newHandler()

	rr := httptest.NewRecorder()
	h.Register(rr, postJSON(t, map[string]string{"nickname": " gordon ", "password": "secret"}), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	h, _ := newHandler()

	rr := httptest.NewRecorder()
	h.Register(rr, postJSON(t, map[string]string{"nickname": "gordon", "password": "secret"}), nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	h.Login(rr, postJSON(t, map[string]string{"nickname": "gordon", "password": "wrong"}), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "incorrect user or password")

	rr = httptest.NewRecorder()
	h.Login(rr, postJSON(t, map[string]string{"nickname": "nobody", "password": "secret"}), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "unknown user and wrong password are indistinguishable")
}
