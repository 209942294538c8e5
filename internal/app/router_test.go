package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skillforge_backend/internal/config"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-test-secret-test-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: "0", Mode: "test"},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: "file:" + name + "?mode=memory&cache=shared"},
		JWT:      config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour},
	}
	db, err := database.InitDB(&cfg.Database, false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	a := New(cfg, db, nil)
	t.Cleanup(a.Close)
	return a
}

func (a *App) as(t *testing.T, userID uint, role util.UserRole) *client {
	token, err := util.GenerateJWT(userID, role, fmt.Sprintf("u%d@example.com", userID), testSecret, time.Hour)
	require.NoError(t, err)
	return &client{t: t, router: a.Router, token: token}
}

func (c *client) do(method, path string, body interface{}) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type idOnly struct {
	ID uint `json:"id"`
}

type quizView struct {
	ID        uint `json:"id"`
	Questions []struct {
		ID      uint `json:"id"`
		Options []struct {
			ID   uint   `json:"id"`
			Text string `json:"text"`
		} `json:"options"`
	} `json:"questions"`
}

type attemptView struct {
	ID              string   `json:"id"`
	Submitted       bool     `json:"submitted"`
	Score           float64  `json:"score"`
	Passed          bool     `json:"passed"`
	TotalMarks      *float64 `json:"totalMarks"`
	NewAchievements []struct {
		AchievementID uint `json:"achievementId"`
	} `json:"newAchievements"`
}

func TestSubmissionFlowOverHTTP(t *testing.T) {
	a := newTestApp(t)
	teacher := a.as(t, 1, util.Teacher)
	admin := a.as(t, 2, util.Admin)
	learner := a.as(t, 10, util.Student)

	code, env := teacher.do(http.MethodPost, "/api/teacher/courses", gin.H{
		"title":      "Python for backends",
		"expPoints":  100,
		"skillCodes": []string{"PY", "BE"},
		"materials":  []gin.H{{"title": "Intro"}},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	course := decode[idOnly](t, env)

	code, env = teacher.do(http.MethodPost, "/api/teacher/quizzes", gin.H{
		"title":        "Final",
		"courseId":     course.ID,
		"passingMarks": 5,
		"terminal":     true,
		"questions": []gin.H{{
			"title":  "Pick",
			"type":   "single_choice",
			"points": 10,
			"options": []gin.H{
				{"text": "right", "isCorrect": true},
				{"text": "wrong"},
			},
		}},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	quizID := decode[idOnly](t, env).ID

	code, env = admin.do(http.MethodPost, "/api/admin/achievements", gin.H{
		"title":        "Pythonista",
		"requirements": []gin.H{{"skillCode": "PY", "threshold": 100}},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	achievementID := decode[idOnly](t, env).ID

	code, _ = learner.do(http.MethodPost, fmt.Sprintf("/api/quizzes/%d/attempts", quizID), nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = learner.do(http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), nil)
	require.Equal(t, http.StatusCreated, code)
	code, _ = learner.do(http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = learner.do(http.MethodGet, fmt.Sprintf("/api/quizzes/%d", quizID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), "isCorrect")
	quiz := decode[quizView](t, env)
	require.Len(t, quiz.Questions, 1)
	question := quiz.Questions[0]
	require.Len(t, question.Options, 2)
	var right uint
	for _, o := range question.Options {
		if o.Text == "right" {
			right = o.ID
		}
	}

	code, env = learner.do(http.MethodPost, fmt.Sprintf("/api/quizzes/%d/attempts", quizID), nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	attempt := decode[attemptView](t, env)

	code, env = learner.do(http.MethodPut, fmt.Sprintf("/api/attempts/%s/answers/%d", attempt.ID, question.ID), gin.H{
		"selectedOptionIds": []uint{right},
	})
	require.Equal(t, http.StatusOK, code, env.Message)

	// 其他学员看不到该答题记录
	other := a.as(t, 11, util.Student)
	code, _ = other.do(http.MethodPatch, "/api/attempts/"+attempt.ID+"/submit", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = learner.do(http.MethodPatch, "/api/attempts/"+attempt.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	result := decode[attemptView](t, env)
	assert.True(t, result.Submitted)
	assert.True(t, result.Passed)
	assert.Equal(t, 10.0, result.Score)
	require.NotNil(t, result.TotalMarks)
	assert.Equal(t, 10.0, *result.TotalMarks)
	require.Len(t, result.NewAchievements, 1)
	assert.Equal(t, achievementID, result.NewAchievements[0].AchievementID)

	code, _ = learner.do(http.MethodPatch, "/api/attempts/"+attempt.ID+"/submit", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = teacher.do(http.MethodGet, "/api/attempts/"+attempt.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, decode[attemptView](t, env).TotalMarks)

	code, env = learner.do(http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[struct {
		Stats map[string]int `json:"stats"`
	}](t, env)
	assert.Equal(t, 100, stats.Stats["PY"])
	assert.Equal(t, 100, stats.Stats["BE"])

	code, env = learner.do(http.MethodGet, "/api/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[struct {
		List []struct {
			ID string `json:"id"`
		} `json:"list"`
		Total int64 `json:"total"`
	}](t, env)
	require.EqualValues(t, 1, page.Total)

	code, _ = learner.do(http.MethodPatch, "/api/notifications/"+page.List[0].ID+"/read", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = other.do(http.MethodPatch, "/api/notifications/"+page.List[0].ID+"/read", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = learner.do(http.MethodGet, "/api/enrollments", nil)
	require.Equal(t, http.StatusOK, code)
	enrollments := decode[[]struct {
		Progress int `json:"progress"`
	}](t, env)
	require.Len(t, enrollments, 1)
	assert.Equal(t, 100, enrollments[0].Progress)

	code, env = learner.do(http.MethodGet, "/api/achievements", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]idOnly](t, env), 1)
}

func TestAuthAndRoleChecks(t *testing.T) {
	a := newTestApp(t)
	anonymous := &client{t: t, router: a.Router}
	learner := a.as(t, 10, util.Student)

	code, _ := anonymous.do(http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	forged := &client{t: t, router: a.Router, token: "not-a-jwt"}
	code, _ = forged.do(http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = learner.do(http.MethodPost, "/api/teacher/courses", gin.H{"title": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.as(t, 1, util.Teacher).do(http.MethodPost, "/api/admin/achievements", gin.H{"title": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	// 公共接口无需登录
	code, env := anonymous.do(http.MethodGet, "/api/skills", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]struct {
		Code string `json:"code"`
	}](t, env), len(database.DefaultSkills))

	code, _ = anonymous.do(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRequestValidation(t *testing.T) {
	a := newTestApp(t)
	teacher := a.as(t, 1, util.Teacher)
	learner := a.as(t, 10, util.Student)

	code, env := teacher.do(http.MethodPost, "/api/teacher/quizzes", gin.H{
		"title":     "Bad",
		"questions": []gin.H{{"title": "x", "type": "essay", "points": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "type")

	code, _ = teacher.do(http.MethodPost, "/api/teacher/quizzes", gin.H{"title": "Empty", "questions": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = teacher.do(http.MethodPost, "/api/teacher/courses", gin.H{"title": "x", "skillCodes": []string{"py"}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = teacher.do(http.MethodPost, "/api/teacher/courses", gin.H{"title": "x", "skillCodes": []string{"RUST"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "RUST")

	code, _ = learner.do(http.MethodGet, "/api/quizzes/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = learner.do(http.MethodGet, "/api/quizzes/42", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = learner.do(http.MethodGet, "/api/attempts/unknown", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
