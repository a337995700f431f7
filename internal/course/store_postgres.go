package course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-courses/internal/quality"
)

const dbTimeout = 5 * time.Second

const courseColumns = `id::text, instructor_id, title, subtitle, description, category, level,
	price, objectives, curriculum, thumbnail_url, promo_video_url, status,
	admin_flags, quality_score, review_note, created_at, updated_at`

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed course store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateCourse(ctx context.Context, c Course) (Course, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if c.InstructorID == "" {
		return Course{}, fmt.Errorf("instructor_id is required")
	}
	if c.Status == "" {
		c.Status = StatusDraft
	}

	objectives, err := marshalJSON(c.Objectives, "[]")
	if err != nil {
		return Course{}, fmt.Errorf("marshal objectives: %w", err)
	}
	curriculum, err := marshalJSON(c.Curriculum, "[]")
	if err != nil {
		return Course{}, fmt.Errorf("marshal curriculum: %w", err)
	}
	flags, err := marshalJSON(c.AdminFlags, "[]")
	if err != nil {
		return Course{}, fmt.Errorf("marshal admin flags: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO courses (instructor_id, title, subtitle, description, category, level,
		   price, objectives, curriculum, thumbnail_url, promo_video_url, status,
		   admin_flags, quality_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10, $11, $12, $13::jsonb, $14)
		 RETURNING `+courseColumns,
		c.InstructorID,
		c.Title,
		c.Subtitle,
		c.Description,
		c.Category,
		c.Level,
		c.Price,
		objectives,
		curriculum,
		nullIfEmpty(c.ThumbnailURL),
		nullIfEmpty(c.PromoVideoURL),
		string(c.Status),
		flags,
		c.QualityScore,
	)
	created, err := scanCourse(row)
	if err != nil {
		return Course{}, fmt.Errorf("create course: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetCourse(ctx context.Context, id string) (Course, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	c, err := scanCourse(s.pool.QueryRow(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1::uuid`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Course{}, ErrNotFound
	}
	if err != nil {
		return Course{}, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status Status) ([]Course, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE status = $1 ORDER BY created_at ASC`,
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	out := []Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, from, to Status, note string) (Course, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	c, err := scanCourse(s.pool.QueryRow(ctx,
		`UPDATE courses
		 SET status = $3, review_note = $4, updated_at = NOW()
		 WHERE id = $1::uuid AND status = $2
		 RETURNING `+courseColumns,
		id, string(from), string(to), note,
	))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Course{}, fmt.Errorf("update course status: %w", err)
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1::uuid)`, id,
	).Scan(&exists); err != nil {
		return Course{}, fmt.Errorf("check course: %w", err)
	}
	if !exists {
		return Course{}, ErrNotFound
	}
	return Course{}, ErrInvalidTransition
}

func (s *PostgresStore) OtherInstructorCourses(ctx context.Context, instructorID string) ([]quality.PriorCourse, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT title, description FROM courses WHERE instructor_id <> $1 ORDER BY created_at ASC`,
		instructorID,
	)
	if err != nil {
		return nil, fmt.Errorf("query prior courses: %w", err)
	}
	defer rows.Close()

	var out []quality.PriorCourse
	for rows.Next() {
		var pc quality.PriorCourse
		if err := rows.Scan(&pc.Title, &pc.Description); err != nil {
			return nil, fmt.Errorf("scan prior course: %w", err)
		}
		out = append(out, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prior courses: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) InstructorProfile(ctx context.Context, instructorID string) (quality.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var avatar, name *string
	err := s.pool.QueryRow(ctx,
		`SELECT avatar_url, full_name FROM profiles WHERE instructor_id = $1`,
		instructorID,
	).Scan(&avatar, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return quality.Profile{}, quality.ErrProfileNotFound
	}
	if err != nil {
		return quality.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return quality.Profile{AvatarURL: deref(avatar), FullName: deref(name)}, nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, instructorID string, p quality.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (instructor_id, avatar_url, full_name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (instructor_id) DO UPDATE
		 SET avatar_url = EXCLUDED.avatar_url, full_name = EXCLUDED.full_name, updated_at = NOW()`,
		instructorID,
		nullIfEmpty(p.AvatarURL),
		nullIfEmpty(p.FullName),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func scanCourse(row pgx.Row) (Course, error) {
	var (
		c                        Course
		status                   string
		objectives, curriculum   []byte
		flags                    []byte
		thumbnailURL, promoVideo *string
	)
	if err := row.Scan(
		&c.ID,
		&c.InstructorID,
		&c.Title,
		&c.Subtitle,
		&c.Description,
		&c.Category,
		&c.Level,
		&c.Price,
		&objectives,
		&curriculum,
		&thumbnailURL,
		&promoVideo,
		&status,
		&flags,
		&c.QualityScore,
		&c.ReviewNote,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Course{}, err
	}

	c.Status = Status(status)
	c.ThumbnailURL = deref(thumbnailURL)
	c.PromoVideoURL = deref(promoVideo)
	if err := json.Unmarshal(objectives, &c.Objectives); err != nil {
		return Course{}, fmt.Errorf("decode objectives: %w", err)
	}
	if err := json.Unmarshal(curriculum, &c.Curriculum); err != nil {
		return Course{}, fmt.Errorf("decode curriculum: %w", err)
	}
	if err := json.Unmarshal(flags, &c.AdminFlags); err != nil {
		return Course{}, fmt.Errorf("decode admin flags: %w", err)
	}
	return c, nil
}

func marshalJSON(v any, empty string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(data) == "null" {
		return empty, nil
	}
	return string(data), nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
