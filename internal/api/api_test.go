package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/SymptomFlow/internal/config"
	"github.com/BTreeMap/SymptomFlow/internal/content"
	"github.com/BTreeMap/SymptomFlow/internal/flow"
	"github.com/BTreeMap/SymptomFlow/internal/patient"
	"github.com/BTreeMap/SymptomFlow/internal/push"
	"github.com/BTreeMap/SymptomFlow/internal/store"
	"github.com/BTreeMap/SymptomFlow/internal/testutil"
	"github.com/BTreeMap/SymptomFlow/internal/user"
)

const patientP1 = `{"id":"p1","name":"Me","year_of_birth":1980,"gender":0,"healthcare_professional":"no"}`

func newTestServer(t *testing.T) (*Server, *testutil.FakeBackend) {
	t.Helper()
	fb := testutil.NewFakeBackend(t)
	fb.Handle(http.MethodGet, "/patients/p1/", http.StatusOK, patientP1)
	fb.Handle(http.MethodGet, "/patients/boom/", http.StatusInternalServerError, `{"detail":"db down"}`)
	fb.Handle(http.MethodGet, "/patient_list/", http.StatusOK, `[`+patientP1+`]`)
	fb.Handle(http.MethodGet, "/study_consent/status/", http.StatusOK, `{"should_ask_uk_validation_study":true}`)
	fb.Handle(http.MethodPost, "/tokens/", http.StatusCreated, ``)
	fb.Handle(http.MethodPost, "/study_consent/", http.StatusCreated, ``)

	client := fb.Client(t)
	kv := store.NewInMemoryStore()
	bundle := config.Default()
	patients := patient.NewService(patient.NewAPIClient(client))
	users := user.NewService(bundle, kv, client, patients)

	orch, err := flow.NewOrchestrator(flow.Dependencies{
		Config:   users,
		Patients: users,
		Consent:  users,
		Study:    users,
		Sink:     flow.NewRecordingSink(),
	})
	require.NoError(t, err)

	srv, err := NewServer(Dependencies{
		Orchestrator: orch,
		Bundle:       bundle,
		Patients:     patients,
		Content:      content.NewService(client, kv),
		Push:         push.NewService(client, kv, nil),
		Consent:      users,
		Study:        users,
		MaxRequests:  1000,
	})
	require.NoError(t, err)
	return srv, fb
}

func do(t *testing.T, srv http.Handler, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.CreateHTTPRequest(t, method, url, body)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func result(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	r, ok := resp["result"].(map[string]interface{})
	require.True(t, ok, "result is not an object: %v", resp)
	return r
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(Dependencies{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/healthz", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "healthz")
	testutil.AssertJSONResponse(t, rr, "ok")
}

func TestConfigHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/v1/config?country=us", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "config US")
	cfg := result(t, testutil.AssertJSONResponse(t, rr, "ok"))
	assert.Equal(t, "US", cfg["country"])
	assert.Equal(t, true, cfg["enableCohorts"])
	assert.Equal(t, "US Nurses", cfg["requiredConsentDocument"])

	rr = do(t, srv, http.MethodGet, "/v1/config", nil)
	cfg = result(t, testutil.AssertJSONResponse(t, rr, "ok"))
	assert.Equal(t, "GB", cfg["country"])

	rr = do(t, srv, http.MethodGet, "/v1/config?country=FR", nil)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "config FR")
	testutil.AssertJSONResponse(t, rr, "error")
}

func TestFlowHandler_Register(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/v1/flow/Register?country=GB", map[string]string{"patientId": "p1"})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "register GB")
	d := result(t, testutil.AssertJSONResponse(t, rr, "ok"))
	assert.Equal(t, "replace", d["kind"])
	assert.Equal(t, "OptionalInfo", d["name"])
	assert.Equal(t, map[string]interface{}{"patientId": "p1"}, d["params"])

	rr = do(t, srv, http.MethodPost, "/v1/flow/Register?country=SE", map[string]string{"patientId": "p1"})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "register SE")
	d = result(t, testutil.AssertJSONResponse(t, rr, "ok"))
	assert.Equal(t, "reset", d["kind"])
	routes, ok := d["routes"].([]interface{})
	require.True(t, ok)
	require.Len(t, routes, 2)
	assert.Equal(t, "WelcomeRepeat", routes[0].(map[string]interface{})["name"])
	assert.Equal(t, "YourWork", routes[1].(map[string]interface{})["name"])
}

func TestFlowHandler_SelectProfileInvitesToStudy(t *testing.T) {
	srv, fb := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/v1/flow/SelectProfile?country=GB", map[string]interface{}{"patientId": "p1", "mainProfile": true})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "select profile")
	d := result(t, testutil.AssertJSONResponse(t, rr, "ok"))
	assert.Equal(t, "go", d["kind"])
	assert.Equal(t, "ValidationStudyIntro", d["name"])

	var asked bool
	for _, req := range fb.Requests() {
		if req.Path == "/study_consent/status/" {
			asked = true
			assert.Equal(t, "home_screen=false", req.Query)
		}
	}
	assert.True(t, asked)
}

func TestFlowHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		body   any
		status int
	}{
		{"unknown event", "/v1/flow/Nope", nil, http.StatusNotFound},
		{"missing patientId", "/v1/flow/Register?country=SE", map[string]string{}, http.StatusBadRequest},
		{"unsupported country", "/v1/flow/Register?country=FR", map[string]string{"patientId": "p1"}, http.StatusBadRequest},
		{"non-ascii patientId", "/v1/flow/Register?country=SE", map[string]string{"patientId": "pätient"}, http.StatusBadRequest},
		{"patient not found", "/v1/flow/Register?country=SE", map[string]string{"patientId": "missing"}, http.StatusNotFound},
		{"upstream failure", "/v1/flow/WelcomeRepeat?country=SE", map[string]string{"patientId": "boom"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			rr := do(t, srv, http.MethodPost, tt.url, tt.body)
			testutil.AssertHTTPStatus(t, tt.status, rr.Code, tt.name)
			testutil.AssertJSONResponse(t, rr, "error")
		})
	}
}

func TestFlowHandler_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/flow/Register", strings.NewReader(`{"patientId":`))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "invalid json")
}

func TestPatientsHandler(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/v1/patients", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "patients")
	resp := testutil.AssertJSONResponse(t, rr, "ok")
	list, ok := resp["result"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].(map[string]interface{})["id"])
}

func TestStartupHandler(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/v1/content/startup", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "startup")
	r := result(t, testutil.AssertJSONResponse(t, rr, "ok"))
	assert.Contains(t, r, "welcome")
	assert.Contains(t, r, "startupInfo")
}

func TestPushTokenHandler(t *testing.T) {
	srv, fb := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/v1/push/token", map[string]string{"token": "tok", "platform": "ios"})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "push token")
	r := result(t, testutil.AssertJSONResponse(t, rr, "ok"))
	assert.Equal(t, true, r["sent"])

	rr = do(t, srv, http.MethodPost, "/v1/push/token", map[string]string{"token": "tok", "platform": "ios"})
	r = result(t, testutil.AssertJSONResponse(t, rr, "ok"))
	assert.Equal(t, false, r["sent"])

	rr = do(t, srv, http.MethodPost, "/v1/push/token", map[string]string{"token": "tok", "platform": "symbian"})
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "bad platform")

	var sent int
	for _, req := range fb.Requests() {
		if req.Path == "/tokens/" {
			sent++
		}
	}
	assert.Equal(t, 1, sent)
}

func TestConsentHandler_UnlocksPersonalInfo(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/v1/flow/Register?country=US", map[string]string{"patientId": "p1"})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "register US unsigned")
	d := result(t, testutil.AssertJSONResponse(t, rr, "ok"))
	assert.Equal(t, "reset", d["kind"])

	rr = do(t, srv, http.MethodPost, "/v1/user/consent", map[string]string{"document": "US Nurses", "documentVersion": "1.2"})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "sign consent")
	r := result(t, testutil.AssertJSONResponse(t, rr, "ok"))
	assert.Equal(t, "US Nurses", r["document"])

	rr = do(t, srv, http.MethodPost, "/v1/flow/Register?country=US", map[string]string{"patientId": "p1"})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "register US signed")
	d = result(t, testutil.AssertJSONResponse(t, rr, "ok"))
	assert.Equal(t, "replace", d["kind"])
	assert.Equal(t, "OptionalInfo", d["name"])
}

func TestConsentHandler_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, body := range []map[string]string{{}, {"document": "FR"}} {
		rr := do(t, srv, http.MethodPost, "/v1/user/consent", body)
		testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "invalid consent")
		testutil.AssertJSONResponse(t, rr, "error")
	}
}

func TestStudyResponseHandler(t *testing.T) {
	srv, fb := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/v1/study/response", map[string]bool{"accepted": true, "allowFutureDataUse": true})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "study response")
	r := result(t, testutil.AssertJSONResponse(t, rr, "ok"))
	assert.Equal(t, true, r["accepted"])

	var posted []testutil.RecordedRequest
	for _, req := range fb.Requests() {
		if req.Method == http.MethodPost && req.Path == "/study_consent/" {
			posted = append(posted, req)
		}
	}
	require.Len(t, posted, 1)
	assert.Contains(t, posted[0].Body, `"status":"signed"`)
	assert.Contains(t, posted[0].Body, `"allow_future_data_use":true`)
	assert.Contains(t, posted[0].Body, `"allow_contact_by_zoe":false`)

	rr = do(t, srv, http.MethodPost, "/v1/study/response", map[string]bool{"allowContact": true})
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "missing accepted")
}

func TestBodyTooLarge(t *testing.T) {
	srv, fb := newTestServer(t)
	huge := strings.Repeat("a", maxBodyBytes+1)

	rr := do(t, srv, http.MethodPost, "/v1/flow/Register?country=SE", map[string]string{"patientId": huge})
	testutil.AssertHTTPStatus(t, http.StatusRequestEntityTooLarge, rr.Code, "flow body")
	testutil.AssertJSONResponse(t, rr, "error")

	rr = do(t, srv, http.MethodPost, "/v1/push/token", map[string]string{"token": huge, "platform": "ios"})
	testutil.AssertHTTPStatus(t, http.StatusRequestEntityTooLarge, rr.Code, "push body")
	testutil.AssertJSONResponse(t, rr, "error")

	for _, req := range fb.Requests() {
		assert.NotEqual(t, "/tokens/", req.Path)
	}
}

func TestFlowErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, flowErrorStatus(&flow.UnknownFlowEventError{Event: "x"}))
	assert.Equal(t, http.StatusBadRequest, flowErrorStatus(&flow.MissingParameterError{Event: flow.EventRegister, Param: "patientId"}))
	assert.Equal(t, http.StatusNotFound, flowErrorStatus(&flow.UpstreamStateError{Event: flow.EventRegister, Source: flow.SourcePatientStore, Err: patient.ErrNotFound}))
	assert.Equal(t, http.StatusBadGateway, flowErrorStatus(&flow.UpstreamStateError{Event: flow.EventRegister, Source: flow.SourceStudy, Err: assert.AnError}))
	assert.Equal(t, http.StatusInternalServerError, flowErrorStatus(assert.AnError))
}
