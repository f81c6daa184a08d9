package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/finadvisor/internal/advisor/biz"
	"github.com/kart-io/finadvisor/internal/advisor/handler"
	"github.com/kart-io/finadvisor/internal/advisor/router"
	"github.com/kart-io/finadvisor/pkg/errors"
)

// fakeService 按预设返回结果或错误。
type fakeService struct {
	result *biz.AskResult
	err    error
	calls  int
}

func (f *fakeService) Ask(_ context.Context, question string) (*biz.AskResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeService) Stats(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"store": map[string]interface{}{"records": 2}}, nil
}

func newTestRouter(svc biz.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	router.Register(engine, handler.NewAdvisorHandler(svc), handler.NewTradeHandler(biz.NewBook()))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAskSuccess(t *testing.T) {
	svc := &fakeService{result: &biz.AskResult{
		Answer:  "Revenue grew 12%.",
		Sources: []biz.SourceRef{{Source: "report.pdf", Index: 0, Score: 0.92}},
	}}
	engine := newTestRouter(svc)

	w := doJSON(t, engine, http.MethodPost, "/v1/ask", map[string]string{"question": "What was the revenue?"})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code int           `json:"code"`
		Data biz.AskResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "Revenue grew 12%.", resp.Data.Answer)
	require.Len(t, resp.Data.Sources, 1)
	assert.Equal(t, "report.pdf", resp.Data.Sources[0].Source)
}

func TestAskEmptyQuestion(t *testing.T) {
	svc := &fakeService{err: errors.ErrEmptyQuestion}
	engine := newTestRouter(svc)

	w := doJSON(t, engine, http.MethodPost, "/v1/ask", map[string]string{"question": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrEmptyQuestion.Code, resp.Code)
	assert.Equal(t, "Question is required", resp.Message)
}

func TestAskInvalidBody(t *testing.T) {
	svc := &fakeService{result: &biz.AskResult{Answer: "x"}}
	engine := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// 请求体无法解析时不进入业务层
	assert.Equal(t, 0, svc.calls)
}

func TestAskProviderFailure(t *testing.T) {
	svc := &fakeService{err: errors.ErrProvider}
	engine := newTestRouter(svc)

	w := doJSON(t, engine, http.MethodPost, "/v1/ask", map[string]string{"question": "q"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Unable to reach the language model service. Please try again later.", resp.Message)
}

func TestStats(t *testing.T) {
	engine := newTestRouter(&fakeService{})
	w := doJSON(t, engine, http.MethodGet, "/v1/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthz(t *testing.T) {
	engine := newTestRouter(&fakeService{})
	w := doJSON(t, engine, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTradeFlow(t *testing.T) {
	engine := newTestRouter(&fakeService{})

	w := doJSON(t, engine, http.MethodPost, "/v1/trade/buy",
		map[string]interface{}{"symbol": "TCS", "quantity": 2})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data biz.Portfolio `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(100000-2*3700), resp.Data.Cash)
	assert.Equal(t, 2, resp.Data.Holdings["TCS"])

	w = doJSON(t, engine, http.MethodPost, "/v1/trade/sell",
		map[string]interface{}{"symbol": "TCS", "quantity": 1})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/v1/portfolio", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Holdings["TCS"])
	assert.Equal(t, float64(100000), resp.Data.Value)
}

func TestTradeRejections(t *testing.T) {
	engine := newTestRouter(&fakeService{})

	// 未知标的
	w := doJSON(t, engine, http.MethodPost, "/v1/trade/buy",
		map[string]interface{}{"symbol": "NOPE", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 持仓不足
	w = doJSON(t, engine, http.MethodPost, "/v1/trade/sell",
		map[string]interface{}{"symbol": "INFY", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 缺少字段
	w = doJSON(t, engine, http.MethodPost, "/v1/trade/buy",
		map[string]interface{}{"symbol": "TCS"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
