package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
	"github.com/Krishna2005-yadav/Crop-System/internal/repository"
)

var userColumns = []string{
	"id",
	"username",
	"email",
	"password_hash",
	"profile_picture",
	"is_admin",
	"ban_kind",
	"banned_until",
	"ban_reason",
	"created_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{exec: exec, builder: newBuilder()}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{exec: tx, builder: r.builder}
}

// Create inserts a user and returns its generated id.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (int64, error) {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	stmt, args, err := r.builder.Insert("users").
		Columns("username", "email", "password_hash", "profile_picture", "is_admin", "ban_kind", "created_at").
		Values(user.Username, user.Email, user.PasswordHash, user.ProfilePicture, user.IsAdmin, string(domain.BanNone), createdAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert user sql: %w", err)
	}

	var id int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrConflict
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by normalised email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Eq) (*domain.User, error) {
	stmt, args, err := r.builder.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	user, err := scanUser(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row, extra ...any) (*domain.User, error) {
	var (
		user    domain.User
		banKind string
		until   *time.Time
		reason  *string
	)

	dest := append([]any{
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.ProfilePicture,
		&user.IsAdmin,
		&banKind,
		&until,
		&reason,
		&user.CreatedAt,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	user.Ban = domain.BanStateFromColumns(banKind, until, reason)
	return &user, nil
}

// IsAdmin reads the admin flag straight from the row.
func (r *UserRepository) IsAdmin(ctx context.Context, id int64) (bool, error) {
	stmt, args, err := r.builder.Select("is_admin").From("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build select admin flag sql: %w", err)
	}

	var admin bool
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&admin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, repository.ErrNotFound
		}
		return false, fmt.Errorf("select admin flag: %w", err)
	}
	return admin, nil
}

// UpdateBan stores ban. Permanent bans carry no expiry.
func (r *UserRepository) UpdateBan(ctx context.Context, id int64, ban domain.BanState) error {
	var (
		until  *time.Time
		reason *string
	)
	if ban.Kind == domain.BanTemporary {
		u := ban.Until.UTC()
		until = &u
	}
	if ban.Reason != "" {
		reason = &ban.Reason
	}
	kind := ban.Kind
	if kind == "" {
		kind = domain.BanNone
	}

	return r.update(ctx, id, "update ban", map[string]any{
		"ban_kind":     string(kind),
		"banned_until": until,
		"ban_reason":   reason,
	})
}

// ClearBan resets the ban columns.
func (r *UserRepository) ClearBan(ctx context.Context, id int64) error {
	return r.update(ctx, id, "clear ban", map[string]any{
		"ban_kind":     string(domain.BanNone),
		"banned_until": nil,
		"ban_reason":   nil,
	})
}

// UpdateProfile changes the username and profile picture.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, username string, profilePicture *string) error {
	return r.update(ctx, id, "update profile", map[string]any{
		"username":        username,
		"profile_picture": profilePicture,
	})
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.update(ctx, id, "update password", map[string]any{"password_hash": passwordHash})
}

func (r *UserRepository) update(ctx context.Context, id int64, op string, values map[string]any) error {
	stmt, args, err := r.builder.Update("users").SetMap(values).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build %s sql: %w", op, err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a user row. History rows cascade.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	stmt, args, err := r.builder.Delete("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete user sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListWithActivity returns every user, newest first, with detection and recommendation counts.
func (r *UserRepository) ListWithActivity(ctx context.Context) ([]domain.UserActivity, error) {
	columns := make([]string, 0, len(userColumns)+2)
	for _, c := range userColumns {
		columns = append(columns, "u."+c)
	}
	columns = append(columns,
		"(SELECT COUNT(*) FROM detection_logs d WHERE d.user_id = u.id) AS detection_count",
		"(SELECT COUNT(*) FROM recommendation_logs rl WHERE rl.user_id = u.id) AS recommendation_count",
	)

	stmt, args, err := r.builder.Select(columns...).From("users u").OrderBy("u.created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var result []domain.UserActivity
	for rows.Next() {
		var activity domain.UserActivity
		user, err := scanUser(rows, &activity.DetectionCount, &activity.RecommendationCount)
		if err != nil {
			return nil, fmt.Errorf("scan user activity: %w", err)
		}
		activity.User = *user
		result = append(result, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return result, nil
}

// Count returns the number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.exec, r.builder.Select("COUNT(*)").From("users"))
}

func countRows(ctx context.Context, exec pgExecutor, query squirrel.SelectBuilder) (int, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count sql: %w", err)
	}

	var n int
	if err := exec.QueryRow(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
