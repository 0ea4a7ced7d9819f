package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
)

func TestRecommendationRepository_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRecommendationRepository(mock)

	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	log := domain.RecommendationLog{
		UserID:    3,
		Crop:      "Rice",
		Sample:    domain.SoilSample{Nitrogen: 90, Phosphorus: 42, Potassium: 43, Temperature: 21, PH: 6.5},
		CreatedAt: at,
	}

	mock.ExpectQuery(`INSERT INTO recommendation_logs .* RETURNING id`).
		WithArgs(int64(3), "Rice", 90.0, 42.0, 43.0, 21.0, 6.5, at).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

	id, err := repo.Create(context.Background(), log)
	if err != nil || id != 11 {
		t.Fatalf("expected id 11, got %d err=%v", id, err)
	}
}

func TestRecommendationRepository_ListScoped(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRecommendationRepository(mock)

	userID := int64(3)
	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM recommendation_logs WHERE user_id = \$1 ORDER BY created_at DESC LIMIT 5`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "crop", "nitrogen", "phosphorus", "potassium", "temperature", "ph", "created_at"}).
			AddRow(int64(1), userID, "Maize", 80.0, 40.0, 40.0, 25.0, 6.8, at))

	logs, err := repo.List(context.Background(), port.HistoryScope{UserID: &userID, Limit: 5})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(logs) != 1 || logs[0].Crop != "Maize" || logs[0].Sample.PH != 6.8 {
		t.Fatalf("unexpected logs %+v", logs)
	}
}

func TestRecommendationRepository_CountAll(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRecommendationRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM recommendation_logs$`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))

	n, err := repo.Count(context.Background(), port.HistoryScope{Limit: 5})
	if err != nil || n != 12 {
		t.Fatalf("expected 12, got %d err=%v", n, err)
	}
}

func TestRecommendationRepository_CropCounts(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRecommendationRepository(mock)

	mock.ExpectQuery(`SELECT crop, COUNT\(\*\) FROM recommendation_logs GROUP BY crop ORDER BY COUNT\(\*\) DESC`).
		WillReturnRows(pgxmock.NewRows([]string{"crop", "count"}).AddRow("Rice", 5).AddRow("Maize", 2))

	counts, err := repo.CropCounts(context.Background())
	if err != nil {
		t.Fatalf("CropCounts returned error: %v", err)
	}
	if len(counts) != 2 || counts[0] != (domain.LabelCount{Label: "Rice", Count: 5}) {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestDetectionRepository_CreateAndList(t *testing.T) {
	mock := newMockPool(t)
	repo := NewDetectionRepository(mock)

	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO detection_logs .* RETURNING id`).
		WithArgs(int64(3), "Potato", "Late Blight", 91.5, nil, at).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(4)))

	id, err := repo.Create(context.Background(), domain.DetectionLog{UserID: 3, PlantName: "Potato", Disease: "Late Blight", Confidence: 91.5, CreatedAt: at})
	if err != nil || id != 4 {
		t.Fatalf("expected id 4, got %d err=%v", id, err)
	}

	mock.ExpectQuery(`FROM detection_logs ORDER BY created_at DESC`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "plant_name", "disease", "confidence", "image_url", "created_at"}).
			AddRow(int64(4), int64(3), "Potato", "Late Blight", 91.5, "", at))

	logs, err := repo.List(context.Background(), port.HistoryScope{})
	if err != nil || len(logs) != 1 || logs[0].Disease != "Late Blight" {
		t.Fatalf("unexpected logs %+v err=%v", logs, err)
	}
}

func TestDetectionRepository_DeleteScoped(t *testing.T) {
	mock := newMockPool(t)
	repo := NewDetectionRepository(mock)

	owner := int64(3)
	mock.ExpectExec(`DELETE FROM detection_logs WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(8), owner).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err := repo.Delete(context.Background(), 8, port.HistoryScope{UserID: &owner})
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deleted {
		t.Fatal("expected no row deleted for foreign detection")
	}

	mock.ExpectExec(`DELETE FROM detection_logs WHERE id = \$1$`).
		WithArgs(int64(8)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	deleted, err = repo.Delete(context.Background(), 8, port.HistoryScope{})
	if err != nil || !deleted {
		t.Fatalf("expected admin delete to succeed, got %v err=%v", deleted, err)
	}
}

func TestDetectionRepository_DiseaseCounts(t *testing.T) {
	mock := newMockPool(t)
	repo := NewDetectionRepository(mock)

	owner := int64(3)
	mock.ExpectQuery(`SELECT disease, COUNT\(\*\) FROM detection_logs WHERE user_id = \$1 GROUP BY disease`).
		WithArgs(owner).
		WillReturnRows(pgxmock.NewRows([]string{"disease", "count"}).AddRow("Healthy", 3))

	counts, err := repo.DiseaseCounts(context.Background(), port.HistoryScope{UserID: &owner, Limit: 10})
	if err != nil || len(counts) != 1 || counts[0].Count != 3 {
		t.Fatalf("unexpected counts %+v err=%v", counts, err)
	}
}
