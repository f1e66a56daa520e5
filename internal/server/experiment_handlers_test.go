package server

import (
	"net/http"
	"testing"
	"time"

	"ampcast/internal/models"
	"ampcast/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func seedVariantPosts(t *testing.T, db *gorm.DB) (uint, uint) {
	t.Helper()
	now := time.Now().UTC()
	a := models.ContentPost{OwnerID: testUserID, Platform: "twitter", Body: "variant a",
		Status: models.PostStatusPublished, PublishedAt: &now}
	b := models.ContentPost{OwnerID: testUserID, Platform: "twitter", Body: "variant b",
		Status: models.PostStatusPublished, PublishedAt: &now}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("create variant a: %v", err)
	}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("create variant b: %v", err)
	}
	return a.ID, b.ID
}

func seedEngagement(t *testing.T, db *gorm.DB, postID uint, views, likes int64) {
	t.Helper()
	rec := models.EngagementRecord{
		PostID: postID, OwnerID: testUserID, Platform: "twitter",
		Views: views, Likes: likes, CapturedAt: time.Now().UTC(),
	}
	rec.EngagementRate = rec.Rate()
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create engagement: %v", err)
	}
}

func TestExperimentLifecycleOverHTTP(t *testing.T) {
	s, db := newHandlerTestServer(t)
	app := newHandlerTestApp(s)
	aID, bID := seedVariantPosts(t, db)
	seedEngagement(t, db, aID, 500, 40)
	seedEngagement(t, db, bID, 500, 15)

	resp := doJSONRequest(t, app, http.MethodPost, "/api/experiments", fiber.Map{
		"name":              "cta wording",
		"variant_a_post_id": aID,
		"variant_b_post_id": bID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var test models.ExperimentTest
	decodeJSON(t, resp, &test)
	if test.Status != models.ExperimentStatusDraft || test.ID == "" {
		t.Fatalf("unexpected experiment %+v", test)
	}

	resp = doJSONRequest(t, app, http.MethodPost, "/api/experiments/"+test.ID+"/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &test)
	if test.Status != models.ExperimentStatusRunning {
		t.Fatalf("expected running, got %s", test.Status)
	}

	resp = doJSONRequest(t, app, http.MethodPost, "/api/experiments/"+test.ID+"/analyze", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result service.AnalyzeResult
	decodeJSON(t, resp, &result)
	if result.Verdict != service.VerdictSignificant {
		t.Fatalf("expected significant verdict, got %q", result.Verdict)
	}
	if result.Winner != models.WinnerVariantA {
		t.Fatalf("expected variant_a winner, got %q", result.Winner)
	}

	resp = doJSONRequest(t, app, http.MethodGet, "/api/experiments/"+test.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &test)
	if test.Status != models.ExperimentStatusCompleted {
		t.Fatalf("expected completed, got %s", test.Status)
	}

	// The significant outcome leaves an insight behind.
	resp = doJSONRequest(t, app, http.MethodGet, "/api/insights?type=experiment_result", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var insights []models.Insight
	decodeJSON(t, resp, &insights)
	if len(insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(insights))
	}
}

func TestCreateExperimentValidationOverHTTP(t *testing.T) {
	s, db := newHandlerTestServer(t)
	app := newHandlerTestApp(s)
	aID, _ := seedVariantPosts(t, db)

	resp := doJSONRequest(t, app, http.MethodPost, "/api/experiments", fiber.Map{
		"variant_a_post_id": aID,
		"variant_b_post_id": aID,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for identical variants, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = doJSONRequest(t, app, http.MethodPost, "/api/experiments", fiber.Map{
		"variant_a_post_id": aID,
		"variant_b_post_id": 9999,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown variant post, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestAnalyzeDraftExperimentConflicts(t *testing.T) {
	s, db := newHandlerTestServer(t)
	app := newHandlerTestApp(s)
	aID, bID := seedVariantPosts(t, db)

	resp := doJSONRequest(t, app, http.MethodPost, "/api/experiments", fiber.Map{
		"variant_a_post_id": aID,
		"variant_b_post_id": bID,
	})
	var test models.ExperimentTest
	decodeJSON(t, resp, &test)

	resp = doJSONRequest(t, app, http.MethodPost, "/api/experiments/"+test.ID+"/analyze", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for draft analyze, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestCancelExperimentOverHTTP(t *testing.T) {
	s, db := newHandlerTestServer(t)
	app := newHandlerTestApp(s)
	aID, bID := seedVariantPosts(t, db)

	resp := doJSONRequest(t, app, http.MethodPost, "/api/experiments", fiber.Map{
		"variant_a_post_id": aID,
		"variant_b_post_id": bID,
	})
	var test models.ExperimentTest
	decodeJSON(t, resp, &test)

	resp = doJSONRequest(t, app, http.MethodPost, "/api/experiments/"+test.ID+"/cancel", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &test)
	if test.Status != models.ExperimentStatusCancelled {
		t.Fatalf("expected cancelled, got %s", test.Status)
	}
}

func TestExperimentNotFoundOverHTTP(t *testing.T) {
	s, _ := newHandlerTestServer(t)
	app := newHandlerTestApp(s)

	resp := doJSONRequest(t, app, http.MethodGet, "/api/experiments/no-such-id", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}
