package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type startup struct {
	IPCountry  string `json:"ipCountry"`
	UsersCount int    `json:"usersCount"`
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(WithBaseURL(srv.URL+"/"), WithToken("secret"))
	require.NoError(t, err)
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
}

func TestGet_CamelizesKeys(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users/startup_info/", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"ip_country":"SE","users_count":42}`)
	})

	var got startup
	require.NoError(t, c.Get(context.Background(), "/users/startup_info/", &got))
	assert.Equal(t, startup{IPCountry: "SE", UsersCount: 42}, got)
}

func TestGet_UnwrapsStringBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `"{\"ip_country\":\"GB\",\"users_count\":7}"`)
	})

	var got startup
	require.NoError(t, c.Get(context.Background(), "/users/startup_info/", &got))
	assert.Equal(t, startup{IPCountry: "GB", UsersCount: 7}, got)
}

func TestPost_SendsJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"token":"abc"}`, string(body))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Post(context.Background(), "/tokens/", map[string]string{"token": "abc"}, nil)
	require.NoError(t, err)
}

func TestErrors_MapStatus(t *testing.T) {
	status := http.StatusNotFound
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"detail":"nope"}`)
	})

	err := c.Get(context.Background(), "/patients/x/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "nope")

	status = http.StatusUnauthorized
	err = c.Patch(context.Background(), "/patients/x/", map[string]string{}, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCamelizeKeys(t *testing.T) {
	in := map[string]any{
		"patient_list": []any{
			map[string]any{"avatar_name": "a", "year_of_birth": 1980},
		},
		"alreadyCamel": "x",
		"plain":        nil,
	}
	got := CamelizeKeys(in).(map[string]any)

	assert.Contains(t, got, "patientList")
	assert.Contains(t, got, "alreadyCamel")
	assert.Contains(t, got, "plain")
	item := got["patientList"].([]any)[0].(map[string]any)
	assert.Equal(t, "a", item["avatarName"])
	assert.Equal(t, 1980, item["yearOfBirth"])
	// input untouched
	assert.Contains(t, in, "patient_list")
}
