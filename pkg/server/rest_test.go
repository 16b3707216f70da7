package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prismon/mcp-file-rules/internal/models"
	"github.com/prismon/mcp-file-rules/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	os.Setenv("GO_ENV", "test")
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *database.RulesDB) {
	t.Helper()
	db, err := database.NewRulesDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRouter(db), db
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func apiRule(name string, priority int) *models.Rule {
	return &models.Rule{
		Name:     name,
		Priority: priority,
		Enabled:  true,
		Conditions: []*models.Condition{
			{Type: models.ConditionExtension, Value: "pdf"},
		},
		LogicalOperator: models.OperatorAnd,
		ActionKind:      models.ActionMove,
		DestinationRef:  "/archive",
	}
}

func TestRulesCRUD(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/rules", apiRule("archive-pdfs", 10))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Rule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)

	w = doJSON(t, router, http.MethodGet, "/api/rules/archive-pdfs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched models.Rule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, "archive-pdfs", fetched.Name)
	assert.Equal(t, models.ActionMove, fetched.ActionKind)

	w = doJSON(t, router, http.MethodPost, "/api/rules/archive-pdfs/disable", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/rules?enabled=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Rules []*models.Rule `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Empty(t, listing.Rules, "disabled rule is filtered out")

	w = doJSON(t, router, http.MethodDelete, "/api/rules/archive-pdfs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/rules/archive-pdfs", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRule_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/rules", &models.Rule{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/rules", apiRule("dup", 1)).Code)
	w = doJSON(t, router, http.MethodPost, "/api/rules", apiRule("dup", 1))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClassifyEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/rules", apiRule("archive-pdfs", 10)).Code)

	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	w := doJSON(t, router, http.MethodPost, "/api/classify", classifyRequest{Path: path, SourceLocation: "downloads"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result ClassificationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Outcomes, 1)
	require.NotNil(t, result.Outcomes[0].MatchedRule)
	assert.Equal(t, "archive-pdfs", result.Outcomes[0].MatchedRule.Name)
	assert.Equal(t, models.TerminationMatched, result.Outcomes[0].TerminationReason)
	assert.Empty(t, result.Outcomes[0].AppliedRuleIDs, "decision-only by default")
	assert.NotEmpty(t, result.BatchID)

	// The decision is on record under the returned batch ID.
	w = doJSON(t, router, http.MethodGet, "/api/decisions/"+result.BatchID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var audit struct {
		Decisions []*models.Decision `json:"decisions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &audit))
	require.Len(t, audit.Decisions, 1)
	assert.Equal(t, path, audit.Decisions[0].FilePath)
}

func TestClassifyEndpoint_ApplyActions(t *testing.T) {
	router, _ := newTestRouter(t)

	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/rules", apiRule("archive-pdfs", 10)).Code)

	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	w := doJSON(t, router, http.MethodPost, "/api/classify", classifyRequest{Path: path, ApplyActions: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result ClassificationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Outcomes, 1)
	assert.NotEmpty(t, result.Outcomes[0].AppliedRuleIDs)
	assert.Equal(t, "/archive", result.Outcomes[0].FinalFile.SourceLocation)
	require.Len(t, result.PlannedOperations, 1)
	assert.Equal(t, models.ActionMove, result.PlannedOperations[0].Action)
}

func TestClassifyEndpoint_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/classify", classifyRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/classify", classifyRequest{SourceLocation: "empty-location"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "no snapshots scanned for that location")
}

func TestScanAndClassifyLocation(t *testing.T) {
	router, db := newTestRouter(t)

	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/rules", apiRule("archive-pdfs", 10)).Code)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("aa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bb"), 0o644))

	w := doJSON(t, router, http.MethodPost, "/api/scan", scanRequest{Root: dir, SourceLocation: "inbox"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	files, err := db.ListFiles("inbox")
	require.NoError(t, err)
	require.Len(t, files, 2)

	w = doJSON(t, router, http.MethodPost, "/api/classify", classifyRequest{SourceLocation: "inbox"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result ClassificationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Outcomes, 2)

	matched := 0
	for _, out := range result.Outcomes {
		if out.MatchedRule != nil {
			matched++
		}
	}
	assert.Equal(t, 1, matched, "only the pdf matches")

	decisions, err := db.ListDecisions(result.BatchID)
	require.NoError(t, err)
	assert.Len(t, decisions, 2)
}
