package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/SymptomFlow/internal/apiclient"
)

func TestFakeBackend(t *testing.T) {
	f := NewFakeBackend(t)
	f.Handle(http.MethodGet, "/users/startup_info/", http.StatusOK, `{"ip_country":"US","users_count":3}`)
	c := f.Client(t)

	var got struct {
		IPCountry string `json:"ipCountry"`
	}
	require.NoError(t, c.Get(context.Background(), "/users/startup_info/?x=1", &got))
	assert.Equal(t, "US", got.IPCountry)

	err := c.Post(context.Background(), "/tokens/", map[string]string{"token": "t"}, nil)
	assert.ErrorIs(t, err, apiclient.ErrNotFound)

	reqs := f.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "x=1", reqs[0].Query)
	assert.Equal(t, http.MethodPost, reqs[1].Method)
	assert.JSONEq(t, `{"token":"t"}`, reqs[1].Body)
}

type mockTestingT struct {
	failed   bool
	errorMsg string
}

func (m *mockTestingT) Helper() {}

func (m *mockTestingT) Errorf(format string, args ...any) {
	m.failed = true
	m.errorMsg = fmt.Sprintf(format, args...)
}

func (m *mockTestingT) Fatalf(format string, args ...any) {
	m.Errorf(format, args...)
	panic("fatal")
}

func TestAssertHTTPStatus(t *testing.T) {
	tests := []struct {
		name       string
		expected   int
		actual     int
		shouldFail bool
	}{
		{name: "matching status codes", expected: 200, actual: 200},
		{name: "mismatched status codes", expected: 200, actual: 404, shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockT := &mockTestingT{}
			AssertHTTPStatus(mockT, tt.expected, tt.actual, tt.name)
			if mockT.failed != tt.shouldFail {
				t.Errorf("expected failure=%v, got failure=%v: %s", tt.shouldFail, mockT.failed, mockT.errorMsg)
			}
		})
	}
}

func TestAssertJSONResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.WriteString(`{"status":"ok","result":{"a":1}}`)

	resp := AssertJSONResponse(t, rr, "ok")
	assert.Contains(t, resp, "result")

	mockT := &mockTestingT{}
	rr = httptest.NewRecorder()
	rr.WriteString(`{"result":1}`)
	AssertJSONResponse(mockT, rr, "ok")
	assert.True(t, mockT.failed)

	mockT = &mockTestingT{}
	rr = httptest.NewRecorder()
	rr.WriteString(`{"status":}`)
	assert.Panics(t, func() { AssertJSONResponse(mockT, rr, "ok") })
	assert.True(t, mockT.failed)
}

func TestCreateHTTPRequest(t *testing.T) {
	req := CreateHTTPRequest(t, http.MethodPost, "/v1/flow/Register", map[string]string{"patientId": "p1"})
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	req = CreateHTTPRequest(t, http.MethodGet, "/healthz", nil)
	assert.Empty(t, req.Header.Get("Content-Type"))
}
