package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/api"
	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/roster"
	"rollcall/internal/store"
)

type testEnv struct {
	router  *gin.Engine
	db      *store.DB
	users   *roster.Repository
	teacher roster.User
	student roster.User
	admin   roster.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.NewDB("sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	users := roster.NewRepository(db.Client)
	attRepo := attendance.NewRepository(db.Client)
	att := attendance.NewService(attRepo, users)
	sessions := auth.NewMemoryStore()

	r := gin.New()
	api.New(users, attRepo, att, sessions, false).Register(r, nil)

	env := &testEnv{router: r, db: db, users: users}
	env.admin = seedUser(t, users, "boss", "admin123", roster.RoleAdmin, "The Boss", "")
	env.teacher = seedUser(t, users, "t1", "teach123", roster.RoleTeacher, "Teacher One", "Math")
	env.student = seedUser(t, users, "s1", "stud123", roster.RoleStudent, "Student One", "")
	return env
}

func seedUser(t *testing.T, users *roster.Repository, username, password, role, name, subject string) roster.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := roster.User{Username: username, Password: hash, Role: role, Name: name}
	if subject != "" {
		u.Subject = &subject
	}
	created, err := users.Create(context.Background(), u)
	require.NoError(t, err)
	return created
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, username, password, role string) string {
	t.Helper()
	w := e.postForm(t, "/login", url.Values{
		"username": {username},
		"password": {password},
		"role":     {role},
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	env := newTestEnv(t)

	wrongPassword := env.postForm(t, "/login", url.Values{
		"username": {"t1"}, "password": {"nope"}, "role": {"teacher"},
	}, "")
	wrongRole := env.postForm(t, "/login", url.Values{
		"username": {"t1"}, "password": {"teach123"}, "role": {"student"},
	}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongRole.Code)
	// Neither factor is revealed: both failures answer identically.
	assert.JSONEq(t, wrongPassword.Body.String(), wrongRole.Body.String())
}

func TestLoginStoreFailureIsNotACredentialVerdict(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Close())

	w := env.postForm(t, "/login", url.Values{
		"username": {"t1"}, "password": {"teach123"}, "role": {"teacher"},
	}, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code,
		"a dead store must fail the request, not report bad credentials")
	assert.NotContains(t, w.Body.String(), "invalid credentials")
}

func TestLoginRedirectsByRole(t *testing.T) {
	env := newTestEnv(t)
	w := env.postForm(t, "/login", url.Values{
		"username": {"boss"}, "password": {"admin123"}, "role": {"admin"},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.JSONEq(t, `"/admin/dashboard"`, string(body["redirect"]))
}

func TestRoleGate(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.get(t, "/admin/dashboard", "").Code)
	assert.Equal(t, http.StatusUnauthorized, env.get(t, "/admin/dashboard", "bogus-token").Code)

	studentToken := env.login(t, "s1", "stud123", "student")
	assert.Equal(t, http.StatusForbidden, env.get(t, "/admin/dashboard", studentToken).Code)
	assert.Equal(t, http.StatusForbidden, env.get(t, "/teacher/reports", studentToken).Code)
	assert.Equal(t, http.StatusOK, env.get(t, "/student/dashboard", studentToken).Code)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "boss", "admin123", "admin")
	require.Equal(t, http.StatusOK, env.get(t, "/admin/dashboard", token).Code)

	require.Equal(t, http.StatusOK, env.get(t, "/logout", token).Code)
	assert.Equal(t, http.StatusUnauthorized, env.get(t, "/admin/dashboard", token).Code)
}

func TestAddStudentValidationAndDuplicates(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "boss", "admin123", "admin")

	missing := env.postForm(t, "/admin/manage-students", url.Values{
		"name": {"No Password"}, "username": {"nopass"},
	}, token)
	assert.Equal(t, http.StatusBadRequest, missing.Code)

	created := env.postForm(t, "/admin/manage-students", url.Values{
		"name": {"New Kid"}, "username": {"newkid"}, "password": {"pw12345"},
	}, token)
	assert.Equal(t, http.StatusCreated, created.Code)

	// Usernames are unique across roles: the teacher already owns "t1".
	dup := env.postForm(t, "/admin/manage-students", url.Values{
		"name": {"Imposter"}, "username": {"t1"}, "password": {"pw12345"},
	}, token)
	assert.Equal(t, http.StatusConflict, dup.Code)
}

func TestEditStudentBlankPasswordKeepsLoginWorking(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "boss", "admin123", "admin")

	w := env.postForm(t, "/admin/edit-student/"+strconv.FormatInt(env.student.ID, 10), url.Values{
		"name": {"Renamed"}, "username": {"s1"}, "password": {"   "},
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The stored hash was preserved, so the old password still verifies.
	env.login(t, "s1", "stud123", "student")
}

func TestEditTeacherRejectsWrongRoleTarget(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "boss", "admin123", "admin")

	w := env.postForm(t, "/admin/edit-teacher/"+strconv.FormatInt(env.student.ID, 10), url.Values{
		"name": {"X"}, "username": {"s1"}, "subject": {"Math"},
	}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkRemarkEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.login(t, "boss", "admin123", "admin")
	teacherToken := env.login(t, "t1", "teach123", "teacher")
	studentToken := env.login(t, "s1", "stud123", "student")

	studentID := strconv.FormatInt(env.student.ID, 10)

	// Admin marks s1 present on behalf of t1.
	w := env.postForm(t, "/admin/mark-attendance", url.Values{
		"teacher_id":          {strconv.FormatInt(env.teacher.ID, 10)},
		"date":                {"2024-01-01"},
		"student_ids":         {studentID},
		"status_" + studentID: {"on"},
		"note_" + studentID:   {"front row"},
	}, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := env.get(t, "/teacher/reports", teacherToken)
	require.Equal(t, http.StatusOK, report.Code)
	var reportBody struct {
		Subject string                   `json:"subject"`
		Stats   []attendance.StudentStat `json:"student_stats"`
	}
	require.NoError(t, json.Unmarshal(report.Body.Bytes(), &reportBody))
	assert.Equal(t, "Math", reportBody.Subject)
	require.Len(t, reportBody.Stats, 1)
	assert.Equal(t, 1, reportBody.Stats[0].TotalClasses)
	assert.Equal(t, 100.0, reportBody.Stats[0].Percent)

	// The teacher re-marks the same date absent: no status flag submitted.
	w = env.postForm(t, "/teacher/mark-attendance", url.Values{
		"date":        {"2024-01-01"},
		"student_ids": {studentID},
	}, teacherToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report = env.get(t, "/teacher/reports", teacherToken)
	require.NoError(t, json.Unmarshal(report.Body.Bytes(), &reportBody))
	require.Len(t, reportBody.Stats, 1)
	assert.Equal(t, 1, reportBody.Stats[0].TotalClasses, "re-marking must not duplicate the record")
	assert.Equal(t, 0.0, reportBody.Stats[0].Percent)

	// The student sees the final state.
	dash := env.get(t, "/student/dashboard", studentToken)
	require.Equal(t, http.StatusOK, dash.Code)
	var summary attendance.Summary
	require.NoError(t, json.Unmarshal(dash.Body.Bytes(), &summary))
	assert.Equal(t, 0, summary.PresentCount)
	assert.Equal(t, 1, summary.AbsentCount)
	assert.Equal(t, 0.0, summary.Percent)

	history := env.get(t, "/student/view-attendance", studentToken)
	require.Equal(t, http.StatusOK, history.Code)
	var historyBody struct {
		Attendance []attendance.ReportRow `json:"attendance"`
	}
	require.NoError(t, json.Unmarshal(history.Body.Bytes(), &historyBody))
	require.Len(t, historyBody.Attendance, 1)
	assert.Equal(t, "absent", historyBody.Attendance[0].Status)
	assert.Equal(t, "Teacher One", historyBody.Attendance[0].TeacherName)
}

func TestTeacherMarkFormRedisplaysSheet(t *testing.T) {
	env := newTestEnv(t)
	teacherToken := env.login(t, "t1", "teach123", "teacher")
	studentID := strconv.FormatInt(env.student.ID, 10)

	w := env.postForm(t, "/teacher/mark-attendance", url.Values{
		"date":                {"2024-03-05"},
		"student_ids":         {studentID},
		"status_" + studentID: {"on"},
	}, teacherToken)
	require.Equal(t, http.StatusOK, w.Code)

	form := env.get(t, "/teacher/mark-attendance?date=2024-03-05", teacherToken)
	require.Equal(t, http.StatusOK, form.Code)
	var formBody struct {
		Date  string                       `json:"date"`
		Sheet map[string]attendance.Record `json:"sheet"`
	}
	require.NoError(t, json.Unmarshal(form.Body.Bytes(), &formBody))
	assert.Equal(t, "2024-03-05", formBody.Date)
	require.Contains(t, formBody.Sheet, studentID)
	assert.Equal(t, "present", formBody.Sheet[studentID].Status)
}

func TestAdminReportsNoFilterNoRows(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.login(t, "boss", "admin123", "admin")
	teacherToken := env.login(t, "t1", "teach123", "teacher")
	studentID := strconv.FormatInt(env.student.ID, 10)

	w := env.postForm(t, "/teacher/mark-attendance", url.Values{
		"date":                {"2024-01-01"},
		"student_ids":         {studentID},
		"status_" + studentID: {"on"},
	}, teacherToken)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Attendance []attendance.ReportRow `json:"attendance"`
	}

	unfiltered := env.get(t, "/admin/reports", adminToken)
	require.Equal(t, http.StatusOK, unfiltered.Code)
	require.NoError(t, json.Unmarshal(unfiltered.Body.Bytes(), &body))
	assert.Empty(t, body.Attendance, "no student filter must return no rows")

	filtered := env.get(t, "/admin/reports?student_id="+studentID, adminToken)
	require.Equal(t, http.StatusOK, filtered.Code)
	require.NoError(t, json.Unmarshal(filtered.Body.Bytes(), &body))
	require.Len(t, body.Attendance, 1)
	assert.Equal(t, "Student One", body.Attendance[0].StudentName)

	outOfRange := env.get(t, "/admin/reports?student_id="+studentID+"&date_from=2024-02-01", adminToken)
	require.Equal(t, http.StatusOK, outOfRange.Code)
	require.NoError(t, json.Unmarshal(outOfRange.Body.Bytes(), &body))
	assert.Empty(t, body.Attendance)
}

func TestDeleteTeacherCascades(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.login(t, "boss", "admin123", "admin")
	teacherToken := env.login(t, "t1", "teach123", "teacher")
	studentToken := env.login(t, "s1", "stud123", "student")
	studentID := strconv.FormatInt(env.student.ID, 10)

	w := env.postForm(t, "/teacher/mark-attendance", url.Values{
		"date":                {"2024-01-01"},
		"student_ids":         {studentID},
		"status_" + studentID: {"on"},
	}, teacherToken)
	require.Equal(t, http.StatusOK, w.Code)

	del := env.postForm(t, "/admin/delete-teacher/"+strconv.FormatInt(env.teacher.ID, 10), url.Values{}, adminToken)
	require.Equal(t, http.StatusOK, del.Code)

	history := env.get(t, "/student/view-attendance", studentToken)
	require.Equal(t, http.StatusOK, history.Code)
	var historyBody struct {
		Attendance []attendance.ReportRow `json:"attendance"`
	}
	require.NoError(t, json.Unmarshal(history.Body.Bytes(), &historyBody))
	assert.Empty(t, historyBody.Attendance, "deleting the teacher must remove the rows they marked")
}
