package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/tms-engine/pkg/api/dto"
	"github.com/LENAX/tms-engine/pkg/api/middleware"
	"github.com/LENAX/tms-engine/pkg/core/engine"
	"github.com/LENAX/tms-engine/pkg/core/model"
	"github.com/LENAX/tms-engine/pkg/storage/sqldb"
)

const testTenant = "tenant-a"

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := sqldb.Open("sqlite", dbPath)
	require.NoError(t, err, "创建存储失败")
	t.Cleanup(func() { store.Close() })

	eng, err := engine.NewEngine(store, engine.DefaultOptions())
	require.NoError(t, err)
	return SetupRouter(eng, "test")
}

// doJSON 带租户头发送请求
func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantHeader, testTenant)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthNoTenantRequired(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMissingTenantHeader(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/tms/workflows", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkflowCRUD(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/tms/workflows", dto.CreateWorkflowRequest{
		Name:        "issue-flow",
		Description: "缺陷处理",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created dto.APIResponse[*model.Workflow]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, 0, created.Code)
	require.NotNil(t, created.Data)

	w = doJSON(t, router, http.MethodGet, "/tms/workflows/"+created.Data.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/tms/workflows", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/tms/workflows/"+created.Data.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/tms/workflows/"+created.Data.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateWorkflowValidation(t *testing.T) {
	router := setupRouter(t)

	// name缺失在绑定层被拒
	w := doJSON(t, router, http.MethodPost, "/tms/workflows", map[string]string{"description": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTenantIsolationOverHTTP(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/tms/workflows", dto.CreateWorkflowRequest{Name: "flow"})
	require.Equal(t, http.StatusOK, w.Code)
	var created dto.APIResponse[*model.Workflow]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// 另一个租户读同一ID得404
	req := httptest.NewRequest(http.MethodGet, "/tms/workflows/"+created.Data.ID, nil)
	req.Header.Set(middleware.TenantHeader, "tenant-b")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskTransitionEndToEnd(t *testing.T) {
	router := setupRouter(t)

	// 建工作流定义
	w := doJSON(t, router, http.MethodPost, "/tms/workflows", dto.CreateWorkflowRequest{Name: "flow"})
	require.Equal(t, http.StatusOK, w.Code)
	var wf dto.APIResponse[*model.Workflow]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wf))

	states := map[string]*model.WorkflowState{}
	for _, key := range []string{"todo", "doing"} {
		w = doJSON(t, router, http.MethodPost, "/tms/workflow-states", dto.CreateStateRequest{
			WorkflowID: wf.Data.ID, Key: key, Name: key,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var st dto.APIResponse[*model.WorkflowState]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
		states[key] = st.Data
	}

	w = doJSON(t, router, http.MethodPost, "/tms/workflow-transitions", dto.CreateTransitionRequest{
		WorkflowID:  wf.Data.ID,
		Name:        "start",
		FromStateID: states["todo"].ID,
		ToStateID:   states["doing"].ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 建任务并绑定默认实例
	w = doJSON(t, router, http.MethodPost, "/tms/tasks", dto.CreateTaskRequest{
		Title: "修复登录异常", TypeKey: "bug", Priority: "high", ReporterID: "alice",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var task dto.APIResponse[*model.Task]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))

	w = doJSON(t, router, http.MethodPost, "/tms/tasks/"+task.Data.ID+"/instances", dto.BindInstanceRequest{
		WorkflowID: wf.Data.ID, AsDefault: true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 按目标key流转
	w = doJSON(t, router, http.MethodPost, "/tms/tasks/"+task.Data.ID+"/transition?to=doing", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res dto.APIResponse[dto.TransitionResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "doing", res.Data.Task.Status)

	// 没有出边时422
	w = doJSON(t, router, http.MethodPost, "/tms/tasks/"+task.Data.ID+"/transition?to=todo", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
