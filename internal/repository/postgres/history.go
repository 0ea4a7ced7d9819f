package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
)

func applyScope(q squirrel.SelectBuilder, scope port.HistoryScope) squirrel.SelectBuilder {
	if scope.UserID != nil {
		q = q.Where(squirrel.Eq{"user_id": *scope.UserID})
	}
	if scope.Limit > 0 {
		q = q.Limit(scope.Limit)
	}
	return q
}

func labelCounts(ctx context.Context, exec pgExecutor, q squirrel.SelectBuilder) ([]domain.LabelCount, error) {
	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build label count sql: %w", err)
	}

	rows, err := exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("count labels: %w", err)
	}
	defer rows.Close()

	var counts []domain.LabelCount
	for rows.Next() {
		var lc domain.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, fmt.Errorf("scan label count: %w", err)
		}
		counts = append(counts, lc)
	}
	return counts, rows.Err()
}

func deleteForUser(ctx context.Context, exec pgExecutor, builder squirrel.StatementBuilderType, table string, userID int64) error {
	stmt, args, err := builder.Delete(table).Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s sql: %w", table, err)
	}
	if _, err := exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

func insertReturningID(ctx context.Context, exec pgExecutor, q squirrel.InsertBuilder) (int64, error) {
	stmt, args, err := q.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert sql: %w", err)
	}
	var id int64
	if err := exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert row: %w", err)
	}
	return id, nil
}

func createdAtOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// RecommendationRepository implements port.RecommendationRepository.
type RecommendationRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRecommendationRepository constructs a recommendation log repository.
func NewRecommendationRepository(exec pgExecutor) *RecommendationRepository {
	return &RecommendationRepository{exec: exec, builder: newBuilder()}
}

// Create stores a recommendation log row.
func (r *RecommendationRepository) Create(ctx context.Context, log domain.RecommendationLog) (int64, error) {
	return insertReturningID(ctx, r.exec, r.builder.Insert("recommendation_logs").
		Columns("user_id", "crop", "nitrogen", "phosphorus", "potassium", "temperature", "ph", "created_at").
		Values(log.UserID, log.Crop, log.Sample.Nitrogen, log.Sample.Phosphorus, log.Sample.Potassium,
			log.Sample.Temperature, log.Sample.PH, createdAtOrNow(log.CreatedAt)))
}

// List returns recommendations, newest first.
func (r *RecommendationRepository) List(ctx context.Context, scope port.HistoryScope) ([]domain.RecommendationLog, error) {
	q := applyScope(r.builder.
		Select("id", "user_id", "crop", "nitrogen", "phosphorus", "potassium", "temperature", "ph", "created_at").
		From("recommendation_logs").
		OrderBy("created_at DESC"), scope)

	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list recommendations sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	var logs []domain.RecommendationLog
	for rows.Next() {
		var l domain.RecommendationLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Crop, &l.Sample.Nitrogen, &l.Sample.Phosphorus,
			&l.Sample.Potassium, &l.Sample.Temperature, &l.Sample.PH, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendations: %w", err)
	}
	return logs, nil
}

// Count returns the number of recommendations in scope.
func (r *RecommendationRepository) Count(ctx context.Context, scope port.HistoryScope) (int, error) {
	scope.Limit = 0
	return countRows(ctx, r.exec, applyScope(r.builder.Select("COUNT(*)").From("recommendation_logs"), scope))
}

// CropCounts returns how often each crop was recommended, most frequent first.
func (r *RecommendationRepository) CropCounts(ctx context.Context) ([]domain.LabelCount, error) {
	return labelCounts(ctx, r.exec, r.builder.
		Select("crop", "COUNT(*)").
		From("recommendation_logs").
		GroupBy("crop").
		OrderBy("COUNT(*) DESC"))
}

// DeleteForUser removes every recommendation of a user.
func (r *RecommendationRepository) DeleteForUser(ctx context.Context, userID int64) error {
	return deleteForUser(ctx, r.exec, r.builder, "recommendation_logs", userID)
}

// DetectionRepository implements port.DetectionRepository.
type DetectionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewDetectionRepository constructs a detection log repository.
func NewDetectionRepository(exec pgExecutor) *DetectionRepository {
	return &DetectionRepository{exec: exec, builder: newBuilder()}
}

// Create stores a detection log row.
func (r *DetectionRepository) Create(ctx context.Context, log domain.DetectionLog) (int64, error) {
	var image any
	if log.ImageURL != "" {
		image = log.ImageURL
	}
	return insertReturningID(ctx, r.exec, r.builder.Insert("detection_logs").
		Columns("user_id", "plant_name", "disease", "confidence", "image_url", "created_at").
		Values(log.UserID, log.PlantName, log.Disease, log.Confidence, image, createdAtOrNow(log.CreatedAt)))
}

// List returns detections, newest first.
func (r *DetectionRepository) List(ctx context.Context, scope port.HistoryScope) ([]domain.DetectionLog, error) {
	q := applyScope(r.builder.
		Select("id", "user_id", "plant_name", "disease", "confidence", "COALESCE(image_url, '')", "created_at").
		From("detection_logs").
		OrderBy("created_at DESC"), scope)

	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list detections sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}
	defer rows.Close()

	var logs []domain.DetectionLog
	for rows.Next() {
		var l domain.DetectionLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.PlantName, &l.Disease, &l.Confidence, &l.ImageURL, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan detection: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate detections: %w", err)
	}
	return logs, nil
}

// Count returns the number of detections in scope.
func (r *DetectionRepository) Count(ctx context.Context, scope port.HistoryScope) (int, error) {
	scope.Limit = 0
	return countRows(ctx, r.exec, applyScope(r.builder.Select("COUNT(*)").From("detection_logs"), scope))
}

// DiseaseCounts returns detections per disease label in scope, most frequent first.
func (r *DetectionRepository) DiseaseCounts(ctx context.Context, scope port.HistoryScope) ([]domain.LabelCount, error) {
	scope.Limit = 0
	return labelCounts(ctx, r.exec, applyScope(r.builder.
		Select("disease", "COUNT(*)").
		From("detection_logs").
		GroupBy("disease").
		OrderBy("COUNT(*) DESC"), scope))
}

// Delete removes one detection. With a user scope only that user's rows match.
func (r *DetectionRepository) Delete(ctx context.Context, id int64, scope port.HistoryScope) (bool, error) {
	where := squirrel.Eq{"id": id}
	if scope.UserID != nil {
		where["user_id"] = *scope.UserID
	}

	stmt, args, err := r.builder.Delete("detection_logs").Where(where).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete detection sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("delete detection: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteForUser removes every detection of a user.
func (r *DetectionRepository) DeleteForUser(ctx context.Context, userID int64) error {
	return deleteForUser(ctx, r.exec, r.builder, "detection_logs", userID)
}

var (
	_ port.RecommendationRepository = (*RecommendationRepository)(nil)
	_ port.DetectionRepository      = (*DetectionRepository)(nil)
)
