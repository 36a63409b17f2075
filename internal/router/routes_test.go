package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/database"
	"github.com/DroppedLink/feedback/internal/pkg/notify"
	"github.com/DroppedLink/feedback/internal/pkg/storage"
	"github.com/DroppedLink/feedback/internal/service"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.GlobalConfig = config.Default()
	config.GlobalConfig.JWT.Secret = "router-secret"
	config.GlobalConfig.Upload.Dir = t.TempDir()

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	service.Init(storage.NewLocal(db, config.GlobalConfig.Upload), notify.Nop{})
	require.NoError(t, service.Auth.EnsureDefaultAdmin())

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		service.Files = nil
	})

	r := gin.New()
	SetupRoutes(r, config.GlobalConfig.Upload)
	return &testServer{t: t, engine: r}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) login(path, username, password string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, path, "", gin.H{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func (s *testServer) register(username string) string {
	s.t.Helper()
	w, _ := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username, "password": "secret123", "email": username + "@example.com",
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return s.login("/api/v1/auth/login", username, "secret123")
}

func dataID(t *testing.T, env envelope) uint {
	t.Helper()
	var data struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.ID
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w, _ := s.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLegacySubmissionFlow(t *testing.T) {
	s := newServer(t)
	userToken := s.register("alice")
	adminToken := s.login("/api/v1/admin/login", "admin", "feedback_admin")

	w, env := s.do(http.MethodPost, "/api/v1/feedback/submit", "", gin.H{"type": "bug", "subject": "x", "message": "y"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/feedback/submit", userToken, gin.H{"type": "bug", "message": "y"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Subject is required.", env.Msg)

	w, env = s.do(http.MethodPost, "/api/v1/feedback/submit", userToken, gin.H{
		"type": "bug", "subject": "Checkout broken", "message": "500 on pay", "metadata": gin.H{"url": "/pay"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := dataID(t, env)

	t.Run("non admin is rejected", func(t *testing.T) {
		w, _ := s.do(http.MethodGet, "/api/v1/admin/feedback", userToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w, _ = s.do(http.MethodPost, "/api/v1/admin/login", "", gin.H{"username": "alice", "password": "secret123"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin lists and resolves", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/v1/admin/feedback?type=bug&status=new", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list struct {
			Total int64            `json:"total"`
			Items []map[string]any `json:"items"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &list))
		assert.Equal(t, int64(1), list.Total)
		assert.Equal(t, "Checkout broken", list.Items[0]["subject"])

		w, env = s.do(http.MethodPut, "/api/v1/admin/feedback/999/status", adminToken, gin.H{"status": "resolved"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Submission not found.", env.Msg)

		w, env = s.do(http.MethodPut, "/api/v1/admin/feedback/abc/status", adminToken, gin.H{"status": "resolved"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = s.do(http.MethodPut, "/api/v1/admin/feedback/"+itoa(id)+"/status", adminToken, gin.H{
			"status": "resolved", "resolution_notes": "Patched",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w, _ = s.do(http.MethodPost, "/api/v1/admin/feedback/"+itoa(id)+"/reply", adminToken, gin.H{"reply": "Fixed, thanks"})
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("public changelog", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/v1/changelog", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(env.Data), "Checkout broken")
		assert.NotContains(t, string(env.Data), "user_id")

		w, _ = s.do(http.MethodGet, "/api/v1/changelog/html", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Recent Bug Fixes")
		assert.Contains(t, w.Body.String(), "Patched")
	})

	t.Run("user sees own feedback", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/v1/user/feedback", userToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(env.Data), "Fixed, thanks")
	})

	t.Run("export csv", func(t *testing.T) {
		w, _ := s.do(http.MethodGet, "/api/v1/admin/feedback/export?status=resolved", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "user-feedback-export-")
		assert.Contains(t, w.Body.String(), "Checkout broken")
	})

	t.Run("counts", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/v1/admin/system/feedback-counts", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"total":1,"new":0,"in_progress":0,"testing":0,"resolved":1,"wont_fix":0,"comments":0,"bugs":1}`, string(env.Data))
	})
}

func TestFormSubmissionFlow(t *testing.T) {
	s := newServer(t)
	userToken := s.register("bob")
	adminToken := s.login("/api/v1/admin/login", "admin", "feedback_admin")

	w, env := s.do(http.MethodPost, "/api/v1/admin/categories", adminToken, gin.H{"name": "Bugs"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	categoryID := dataID(t, env)

	w, env = s.do(http.MethodPost, "/api/v1/admin/forms", adminToken, gin.H{
		"name":        "Bug Report",
		"category_id": categoryID,
		"field_config": gin.H{"fields": []gin.H{
			{"id": 0, "type": "select", "name": "severity", "label": "Severity", "required": true, "options": []string{"Low", "High"}},
			{"id": 1, "type": "textarea", "name": "description", "label": "Description"},
			{"id": 2, "type": "file", "name": "screenshot", "label": "Screenshot"},
		}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	formID := dataID(t, env)

	w, _ = s.do(http.MethodPost, "/api/v1/admin/forms", adminToken, gin.H{"name": "Bug Report", "category_id": categoryID})
	assert.Equal(t, http.StatusConflict, w.Code)

	t.Run("render", func(t *testing.T) {
		w, _ := s.do(http.MethodGet, "/api/v1/forms/bug-report/render?context_id=home", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `name="severity"`)
		assert.Contains(t, w.Body.String(), `name="attachment"`)

		w, _ = s.do(http.MethodGet, "/api/v1/forms/nope/render", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Error: Form not found or inactive.")

		w, env := s.do(http.MethodGet, "/api/v1/forms/bug-report", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(env.Data), `"severity"`)
	})

	t.Run("multipart with attachment", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("form_id", itoa(formID)))
		require.NoError(t, mw.WriteField("context_id", "home"))
		require.NoError(t, mw.WriteField("severity", "High"))
		require.NoError(t, mw.WriteField("description", "It crashed"))
		part, err := mw.CreateFormFile("attachment", "crash.log")
		require.NoError(t, err)
		_, err = part.Write([]byte("stack trace here"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback/submit", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w, env := s.send(req, userToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		id := dataID(t, env)

		var sub model.Submission
		require.NoError(t, database.DB.First(&sub, id).Error)
		assert.Equal(t, "Form Submission", sub.Subject)
		assert.Equal(t, "It crashed", sub.Message)
		assert.Equal(t, "home", sub.ContextID)
		require.NotNil(t, sub.AttachmentID)
		assert.JSONEq(t, `{"severity":"High","description":"It crashed"}`, string(sub.FormData))

		w, _ = s.do(http.MethodGet, "/api/v1/admin/feedback/"+itoa(id)+"/attachment", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "stack trace here", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "crash.log")
	})

	t.Run("rejected upload", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("attachment", "virus.exe")
		require.NoError(t, err)
		_, err = part.Write([]byte("MZ"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback/attachments", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w, env := s.send(req, userToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, env.Msg, "Invalid file type.")
	})

	t.Run("json missing required field", func(t *testing.T) {
		w, env := s.do(http.MethodPost, "/api/v1/feedback/submit", userToken, gin.H{
			"form_id": formID, "form_data": gin.H{"description": "no severity"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Severity is required.", env.Msg)
	})

	t.Run("category with forms cannot be deleted", func(t *testing.T) {
		w, env := s.do(http.MethodDelete, "/api/v1/admin/categories/"+itoa(categoryID), adminToken, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Cannot delete category with forms. Delete the forms first.", env.Msg)
	})

	t.Run("field ops", func(t *testing.T) {
		w, env := s.do(http.MethodPost, "/api/v1/admin/forms/"+itoa(formID)+"/fields", adminToken, gin.H{
			"ops": []gin.H{{"op": "add", "type": "text"}},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, string(env.Data), `"next_id":4`)

		w, _ = s.do(http.MethodPost, "/api/v1/admin/forms/"+itoa(formID)+"/fields", adminToken, gin.H{
			"ops": []gin.H{{"op": "remove", "id": 3}}, "version": 1,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestBulkAndCanned(t *testing.T) {
	s := newServer(t)
	userToken := s.register("carol")
	adminToken := s.login("/api/v1/admin/login", "admin", "feedback_admin")

	var ids []uint
	for _, subject := range []string{"one", "two"} {
		w, env := s.do(http.MethodPost, "/api/v1/feedback/submit", userToken, gin.H{"type": "comment", "subject": subject, "message": "m"})
		require.Equal(t, http.StatusOK, w.Code)
		ids = append(ids, dataID(t, env))
	}

	w, env := s.do(http.MethodPost, "/api/v1/admin/canned-responses", adminToken, gin.H{"title": "Thanks", "content": "Thanks for the report."})
	require.Equal(t, http.StatusOK, w.Code)
	cannedID := dataID(t, env)

	w, env = s.do(http.MethodGet, "/api/v1/admin/canned-responses/"+itoa(cannedID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Thanks for the report.")

	w, _ = s.do(http.MethodPost, "/api/v1/admin/feedback/"+itoa(ids[0])+"/reply", adminToken, gin.H{"canned_response_id": cannedID})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/admin/feedback/bulk", adminToken, gin.H{"ids": append(ids, 999), "action": "delete"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"processed":2,"failed":1,"errors":[{"id":999,"msg":"Submission not found."}]}`, string(env.Data))
}

func TestAdminProfile(t *testing.T) {
	s := newServer(t)
	adminToken := s.login("/api/v1/admin/login", "admin", "feedback_admin")

	w, env := s.do(http.MethodGet, "/api/v1/admin/profile", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"admin"`)

	w, env = s.do(http.MethodPut, "/api/v1/admin/profile", adminToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Nothing to update.", env.Msg)

	w, _ = s.do(http.MethodPut, "/api/v1/admin/profile", adminToken, gin.H{"password": "rotated123"})
	require.Equal(t, http.StatusOK, w.Code)
	s.login("/api/v1/admin/login", "admin", "rotated123")

	w, env = s.do(http.MethodGet, "/api/v1/admin/system/login-logs?status=success", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"total":2`)
}

// multipartRequest 构造表单提交请求，fileName 为空时不带文件
func multipartRequest(t *testing.T, path string, fields [][2]string, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, kv := range fields {
		require.NoError(t, mw.WriteField(kv[0], kv[1]))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("attachment", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func countRows(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, database.DB.Model(m).Count(&n).Error)
	return n
}

func TestMultipartFieldsNamedLikeTopLevelParams(t *testing.T) {
	s := newServer(t)
	userToken := s.register("dave")
	adminToken := s.login("/api/v1/admin/login", "admin", "feedback_admin")

	w, env := s.do(http.MethodPost, "/api/v1/admin/categories", adminToken, gin.H{"name": "Support"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	categoryID := dataID(t, env)

	w, env = s.do(http.MethodPost, "/api/v1/admin/forms", adminToken, gin.H{
		"name":        "Crash Report",
		"category_id": categoryID,
		"field_config": gin.H{"fields": []gin.H{
			{"id": 0, "type": "text", "name": "subject", "label": "Subject", "required": true},
			{"id": 1, "type": "textarea", "name": "message", "label": "Details"},
			{"id": 2, "type": "select", "name": "type", "label": "Kind", "options": []string{"Crash", "Hang"}},
		}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	formID := dataID(t, env)

	req := multipartRequest(t, "/api/v1/feedback/submit", [][2]string{
		{"form_id", itoa(formID)},
		{"context_id", "editor"},
		{"subject", "App crashes"},
		{"message", "NPE on save"},
		{"type", "Crash"},
	}, "", "")
	w, env = s.send(req, userToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sub model.Submission
	require.NoError(t, database.DB.First(&sub, dataID(t, env)).Error)
	assert.Equal(t, "App crashes", sub.Subject)
	assert.Equal(t, "NPE on save", sub.Message)
	assert.Nil(t, sub.Type)
	assert.JSONEq(t, `{"subject":"App crashes","message":"NPE on save","type":"Crash"}`, string(sub.FormData))

	req = multipartRequest(t, "/api/v1/feedback/submit", [][2]string{
		{"form_id", itoa(formID)},
		{"message", "no subject"},
	}, "", "")
	w, env = s.send(req, userToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Subject is required.", env.Msg)
}

func TestRejectedSubmitStoresNoAttachment(t *testing.T) {
	s := newServer(t)
	userToken := s.register("erin")

	cases := map[string][][2]string{
		"missing subject": {{"type", "bug"}, {"message", "see file"}},
		"invalid type":    {{"type", "praise"}, {"subject", "x"}, {"message", "y"}},
		"unknown form":    {{"form_id", "999"}, {"subject", "x"}},
	}
	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			req := multipartRequest(t, "/api/v1/feedback/submit", fields, "notes.txt", "hello")
			w, _ := s.send(req, userToken)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, int64(0), countRows(t, &model.Attachment{}))
			assert.Equal(t, int64(0), countRows(t, &model.Submission{}))
		})
	}

	req := multipartRequest(t, "/api/v1/feedback/submit", [][2]string{
		{"type", "bug"}, {"subject", "x"}, {"message", "y"},
	}, "notes.txt", "hello")
	w, _ := s.send(req, userToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), countRows(t, &model.Attachment{}))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
