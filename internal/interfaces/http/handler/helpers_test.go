package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cfm/backend/internal/application/auth"
	"github.com/cfm/backend/internal/application/payments"
	"github.com/cfm/backend/internal/application/reports"
	appstate "github.com/cfm/backend/internal/application/state"
	"github.com/cfm/backend/internal/application/students"
	"github.com/cfm/backend/internal/domain/academics"
	"github.com/cfm/backend/internal/domain/fees"
	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/domain/shared"
	"github.com/cfm/backend/internal/domain/shared/valueobject"
	"github.com/cfm/backend/internal/domain/state"
	"github.com/cfm/backend/internal/infrastructure/config"
	"github.com/cfm/backend/internal/interfaces/http/handler"
	"github.com/cfm/backend/internal/interfaces/http/middleware"
	"github.com/cfm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCookieName = "cfm_session"

type memStateRepo struct {
	mu      sync.Mutex
	doc     *state.Document
	version int64
}

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{doc: state.Empty(), version: 1}
}

func (r *memStateRepo) Load(_ context.Context) (*state.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.doc.Clone()
	if err != nil {
		return nil, err
	}
	return &state.Snapshot{Doc: doc, Version: r.version}, nil
}

func (r *memStateRepo) Save(_ context.Context, doc *state.Document, expectedVersion int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if expectedVersion != 0 && expectedVersion != r.version {
		return 0, shared.ErrConcurrencyConflict
	}
	r.doc = doc
	r.version++
	return r.version, nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]identity.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]identity.Session)}
}

func (s *memSessionStore) Create(_ context.Context, session *identity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = *session
	return nil
}

func (s *memSessionStore) Find(_ context.Context, token string) (*identity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (s *memSessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

type testApp struct {
	engine   *gin.Engine
	states   *memStateRepo
	sessions *memSessionStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	states := newMemStateRepo()
	sessions := newMemSessionStore()
	logger := zap.NewNop()

	authSvc := auth.NewService(states, sessions, logger)
	cookieCfg := config.CookieConfig{Name: testCookieName, Path: "/", SameSite: "lax"}
	sessionAuth := middleware.NewSessionAuth(testCookieName, authSvc)

	engine := gin.New()
	router.NewRouter(engine).
		Register(handler.NewSystemHandler("cfm-backend", "test")).
		Register(handler.NewAuthHandler(authSvc, cookieCfg)).
		Register(handler.NewStateHandler(appstate.NewService(states, logger), sessionAuth)).
		Register(handler.NewPaymentHandler(payments.NewService(states, logger), sessionAuth)).
		Register(handler.NewStudentHandler(students.NewImportService(states, logger), sessionAuth)).
		Register(handler.NewReportHandler(reports.NewService(states, logger), sessionAuth)).
		Setup()

	return &testApp{engine: engine, states: states, sessions: sessions}
}

// loginAs creates a user directly in the document and opens a session
// for it, returning the session cookie.
func (a *testApp) loginAs(t *testing.T, email string, role identity.Role) (*identity.User, *http.Cookie) {
	t.Helper()
	user, err := identity.NewUser(email, "secret123", role)
	require.NoError(t, err)
	a.states.doc.Users = append(a.states.doc.Users, *user)
	return user, a.openSession(t, user)
}

// loginAsStudent creates a student profile with a linked login
func (a *testApp) loginAsStudent(t *testing.T, registerNo string) (*identity.User, *http.Cookie) {
	t.Helper()
	student, err := academics.NewStudent("Test Student", registerNo, "CSE", "2")
	require.NoError(t, err)
	a.states.doc.Students = append(a.states.doc.Students, *student)

	user, err := identity.NewStudentUser(registerNo+"@college.edu", "secret123", registerNo)
	require.NoError(t, err)
	a.states.doc.Users = append(a.states.doc.Users, *user)
	return user, a.openSession(t, user)
}

func (a *testApp) openSession(t *testing.T, user *identity.User) *http.Cookie {
	t.Helper()
	session, err := identity.NewSession(user.ID)
	require.NoError(t, err)
	require.NoError(t, a.sessions.Create(context.Background(), session))
	return &http.Cookie{Name: testCookieName, Value: session.Token}
}

// allocate appends a fee allocation for a student
func (a *testApp) allocate(t *testing.T, registerNo, feeID string, amount float64) {
	t.Helper()
	alloc, err := fees.NewFeeAllocation(registerNo, feeID, valueobject.NewMoneyINRFromFloat(amount))
	require.NoError(t, err)
	a.states.doc.Allocations = append(a.states.doc.Allocations, *alloc)
}

func (a *testApp) doJSON(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) doUpload(t *testing.T, path, filename string, payload []byte, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the "data" field of a response envelope
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

// errorCode returns the error code of a failed response
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error.Code
}
