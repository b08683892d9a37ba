package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/tnqbao/gau-datagen-service/config"
	"github.com/tnqbao/gau-datagen-service/generator"
)

func newTestController() *Controller {
	cfg := &config.Config{EnvConfig: &config.EnvConfig{}}
	cfg.EnvConfig.Generation.MinRecords = 100
	cfg.EnvConfig.Generation.MaxRecords = 1000000
	return &Controller{Config: cfg, Registry: generator.NewRegistry()}
}

func postGenerate(t *testing.T, ctrl *Controller, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/datagen/generate", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	ctrl.CreateGenerateJob(c)
	return w
}

func TestRecordCountBounds(t *testing.T) {
	ctrl := newTestController()

	cases := []struct {
		count int
		ok    bool
	}{
		{99, false},
		{100, true},
		{1000000, true},
		{1000001, false},
		{1, false},
		{500, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, ctrl.recordCountInBounds(tc.count), "count %d", tc.count)
	}
}

func TestCreateGenerateJobRejectsOutOfBoundsCounts(t *testing.T) {
	ctrl := newTestController()

	for _, body := range []string{
		`{"data_type": "person", "record_count": 99}`,
		`{"data_type": "person", "record_count": 1000001}`,
	} {
		w := postGenerate(t, ctrl, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
		assert.Contains(t, w.Body.String(), "record_count must be between")
	}
}

func TestCreateGenerateJobRejectsZeroCount(t *testing.T) {
	w := postGenerate(t, newTestController(), `{"data_type": "person", "record_count": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateGenerateJobRejectsUnknownFormat(t *testing.T) {
	w := postGenerate(t, newTestController(), `{"data_type": "person", "record_count": 500, "output_format": "yaml"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unknown output format")
}
