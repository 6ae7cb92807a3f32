package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedIntegrityIssues leaves one stale reference and one unreferenced object in storage
func seedIntegrityIssues(env *handlerEnv) *domain.Site {
	site := env.addSite("Tower")
	kept := env.storage.Put("sites/"+site.ID.String()+"/images/1_kept.jpg", []byte("a"))
	gone := env.storage.Put("sites/"+site.ID.String()+"/images/2_gone.jpg", []byte("b"))
	env.storage.Put("sites/"+site.ID.String()+"/images/3_orphan.jpg", []byte("c"))
	delete(env.storage.Objects, "sites/"+site.ID.String()+"/images/2_gone.jpg")

	site.Attachments.Add(domain.NewCloudAttachment(domain.AttachmentKindImage, kept))
	site.Attachments.Add(domain.NewCloudAttachment(domain.AttachmentKindImage, gone))
	return site
}

func (env *handlerEnv) runCheck(t *testing.T) domain.IntegrityReport {
	t.Helper()
	c, rec := env.newContext(http.MethodPost, "/api/v1/integrity/check", nil)
	require.NoError(t, env.integrity.Check(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report domain.IntegrityReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	return report
}

func issueOfKind(t *testing.T, report domain.IntegrityReport, kind domain.IssueKind) domain.IntegrityIssue {
	t.Helper()
	issues := report.IssuesOfKind(kind)
	require.Len(t, issues, 1)
	return issues[0]
}

func TestIntegrityCheck(t *testing.T) {
	env := newHandlerEnv()
	seedIntegrityIssues(env)

	report := env.runCheck(t)

	assert.Equal(t, 2, report.ReferencedCount)
	assert.Equal(t, 2, report.StoredCount)
	assert.Equal(t, 1, report.MissingInStorage)
	assert.Equal(t, 1, report.MissingInDB)
	assert.Len(t, report.Issues, 2)
}

func TestIntegrityLatest_BeforeAnyCheck(t *testing.T) {
	env := newHandlerEnv()

	c, rec := env.newContext(http.MethodGet, "/api/v1/integrity/latest", nil)
	require.NoError(t, env.integrity.GetLatest(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIntegrityLatestAndHistory(t *testing.T) {
	env := newHandlerEnv()
	seedIntegrityIssues(env)
	first := env.runCheck(t)
	env.runCheck(t)

	c, rec := env.newContext(http.MethodGet, "/api/v1/integrity/latest", nil)
	require.NoError(t, env.integrity.GetLatest(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var latest domain.IntegrityReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Len(t, latest.Issues, len(first.Issues))

	c, rec = env.newContext(http.MethodGet, "/api/v1/integrity/history", nil)
	require.NoError(t, env.integrity.GetHistory(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var history []domain.IntegritySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 2)
}

func TestIntegrityRepair_StaleReference(t *testing.T) {
	env := newHandlerEnv()
	site := seedIntegrityIssues(env)
	report := env.runCheck(t)
	stale := issueOfKind(t, report, domain.IssueMissingInStorage)

	body := fmt.Sprintf(`{"issue": %q}`, stale.ID)
	c, rec := env.newContext(http.MethodPost, "/api/v1/integrity/repair", jsonBody(body))
	require.NoError(t, env.integrity.Repair(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response RepairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, domain.RepairFixed, response.Outcome)
	assert.Len(t, env.sites.Sites[site.ID].Attachments.Cloud, 1)
}

func TestIntegrityRepair_OrphanNeedsConfirm(t *testing.T) {
	env := newHandlerEnv()
	seedIntegrityIssues(env)
	report := env.runCheck(t)
	orphan := issueOfKind(t, report, domain.IssueMissingInDB)

	body := fmt.Sprintf(`{"issue": %q}`, orphan.ID)
	c, rec := env.newContext(http.MethodPost, "/api/v1/integrity/repair", jsonBody(body))
	require.NoError(t, env.integrity.Repair(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, env.storage.Objects, orphan.ObjectPath)

	body = fmt.Sprintf(`{"issue": %q, "confirm": true}`, orphan.ID)
	c, rec = env.newContext(http.MethodPost, "/api/v1/integrity/repair", jsonBody(body))
	require.NoError(t, env.integrity.Repair(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, env.storage.Objects, orphan.ObjectPath)
}

func TestIntegrityRepair_UnknownIssue(t *testing.T) {
	env := newHandlerEnv()
	seedIntegrityIssues(env)
	env.runCheck(t)

	c, rec := env.newContext(http.MethodPost, "/api/v1/integrity/repair", jsonBody(`{"issue": "nope"}`))
	require.NoError(t, env.integrity.Repair(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = env.newContext(http.MethodPost, "/api/v1/integrity/repair", jsonBody(`{}`))
	require.NoError(t, env.integrity.Repair(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIntegrityBatchRepair(t *testing.T) {
	env := newHandlerEnv()
	seedIntegrityIssues(env)
	env.runCheck(t)

	c, rec := env.newContext(http.MethodPost, "/api/v1/integrity/repair/batch", jsonBody(`{}`))
	require.NoError(t, env.integrity.BatchRepair(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	c, rec = env.newContext(http.MethodPost, "/api/v1/integrity/repair/batch", jsonBody(`{"kinds": ["sideways"]}`))
	require.NoError(t, env.integrity.BatchRepair(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = env.newContext(http.MethodPost, "/api/v1/integrity/repair/batch", jsonBody(`{"kinds": ["missing_in_db"], "confirm": true}`))
	require.NoError(t, env.integrity.BatchRepair(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result domain.BatchRepairResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Fixed)
	assert.Equal(t, 0, result.Failed)
}

func TestIntegrityCheck_NoStorage(t *testing.T) {
	env := newLocalOnlyHandlerEnv()

	c, rec := env.newContext(http.MethodPost, "/api/v1/integrity/check", nil)
	require.NoError(t, env.integrity.Check(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
