package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cityfix/cityfix/internal/domain/model"
	"github.com/cityfix/cityfix/pkg/metrics"
)

// PostgresStore implements RequestStore and WorkerStore over PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore initializes a PostgresStore with a connection pool and
// verifies connectivity before returning.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

const requestColumns = `id, title, description, category_id, status, priority, citizen_id,
	assigned_worker_id, latitude, longitude, address, photo_url, sla_deadline, created_at, updated_at`

func scanRequest(row pgx.Row) (model.ServiceRequest, error) {
	var r model.ServiceRequest
	err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.CategoryID, &r.Status, &r.Priority, &r.CitizenID,
		&r.AssignedWorkerID, &r.Latitude, &r.Longitude, &r.Address, &r.PhotoURL,
		&r.SLADeadline, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func (s *PostgresStore) queryRequests(ctx context.Context, op, query string, args ...any) ([]model.ServiceRequest, error) {
	start := time.Now()
	defer func() { metrics.ObserveStoreOp(op, time.Since(start)) }()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ServiceRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- RequestStore ---

func (s *PostgresStore) Create(ctx context.Context, req *model.ServiceRequest) error {
	start := time.Now()
	defer func() { metrics.ObserveStoreOp("request_create", time.Since(start)) }()

	query := `
		INSERT INTO service_requests (id, title, description, category_id, status, priority, citizen_id,
			assigned_worker_id, latitude, longitude, address, photo_url, sla_deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.pool.Exec(ctx, query,
		req.ID, req.Title, req.Description, req.CategoryID, req.Status, req.Priority, req.CitizenID,
		req.AssignedWorkerID, req.Latitude, req.Longitude, req.Address, req.PhotoURL,
		req.SLADeadline, req.CreatedAt, req.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (model.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1`
	r, err := scanRequest(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ServiceRequest{}, ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) List(ctx context.Context) ([]model.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests ORDER BY created_at DESC, id`
	return s.queryRequests(ctx, "request_list", query)
}

func (s *PostgresStore) FindBreached(ctx context.Context, now time.Time) ([]model.ServiceRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM service_requests
		WHERE status NOT IN ('resolved', 'closed', 'overdue')
		  AND sla_deadline IS NOT NULL
		  AND sla_deadline < $1
		ORDER BY sla_deadline
	`
	return s.queryRequests(ctx, "find_breached", query, now)
}

func (s *PostgresStore) FindAtRisk(ctx context.Context, now time.Time, lookahead time.Duration) ([]model.ServiceRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM service_requests
		WHERE status NOT IN ('resolved', 'closed', 'overdue')
		  AND sla_deadline IS NOT NULL
		  AND sla_deadline > $1
		  AND sla_deadline <= $2
		ORDER BY sla_deadline
	`
	return s.queryRequests(ctx, "find_at_risk", query, now, now.Add(lookahead))
}

func (s *PostgresStore) FindAvailable(ctx context.Context) ([]model.ServiceRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM service_requests
		WHERE assigned_worker_id IS NULL AND status = 'submitted'
		ORDER BY CASE priority
			WHEN 'urgent' THEN 3 WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0
		END DESC, created_at
	`
	return s.queryRequests(ctx, "find_available", query)
}

func (s *PostgresStore) FindAssigned(ctx context.Context, workerID string) ([]model.ServiceRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM service_requests
		WHERE assigned_worker_id = $1 AND status IN ('assigned', 'in_progress')
		ORDER BY CASE priority
			WHEN 'urgent' THEN 3 WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0
		END DESC, created_at
	`
	return s.queryRequests(ctx, "find_assigned", query, workerID)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, newStatus model.Status) error {
	start := time.Now()
	defer func() { metrics.ObserveStoreOp("update_status", time.Since(start)) }()

	query := `UPDATE service_requests SET status = $2, updated_at = NOW() WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id, newStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Assign(ctx context.Context, id string, workerID *string, priority model.Priority, status model.Status) error {
	query := `
		UPDATE service_requests
		SET assigned_worker_id = $2,
		    priority = COALESCE(NULLIF($3, ''), priority),
		    status = COALESCE(NULLIF($4, ''), status),
		    updated_at = NOW()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id, workerID, string(priority), string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ClaimIfUnassigned(ctx context.Context, id string, workerID string) error {
	// The WHERE guard makes the claim atomic: zero rows means either the
	// request is gone or another worker got there first.
	query := `
		UPDATE service_requests
		SET assigned_worker_id = $2, status = 'assigned', updated_at = NOW()
		WHERE id = $1 AND assigned_worker_id IS NULL
	`
	tag, err := s.pool.Exec(ctx, query, id, workerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.Get(ctx, id); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrAlreadyClaimed
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM service_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) InsertViolation(ctx context.Context, v *model.SlaViolation) error {
	start := time.Now()
	defer func() { metrics.ObserveStoreOp("insert_violation", time.Since(start)) }()

	query := `
		INSERT INTO sla_violations (id, request_id, worker_id, delay_hours, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, query, v.ID, v.RequestID, v.WorkerID, v.DelayHours, v.CreatedAt)
	return err
}

func (s *PostgresStore) ListViolations(ctx context.Context, limit int) ([]model.SlaViolation, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	query := `
		SELECT id, request_id, worker_id, delay_hours, created_at
		FROM sla_violations ORDER BY created_at DESC LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SlaViolation
	for rows.Next() {
		var v model.SlaViolation
		if err := rows.Scan(&v.ID, &v.RequestID, &v.WorkerID, &v.DelayHours, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// --- WorkerStore ---

func (s *PostgresStore) ListWorkers(ctx context.Context) ([]model.WorkerProfile, error) {
	start := time.Now()
	defer func() { metrics.ObserveStoreOp("list_workers", time.Since(start)) }()

	query := `
		SELECT id, full_name, completed_tasks, sla_violations, average_rating, total_score, created_at
		FROM profiles WHERE role = 'worker'
		ORDER BY total_score DESC, created_at, id
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WorkerProfile
	for rows.Next() {
		var w model.WorkerProfile
		if err := rows.Scan(&w.ID, &w.FullName, &w.CompletedTasks, &w.SLAViolations,
			&w.AverageRating, &w.TotalScore, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *PostgresStore) IncrementViolations(ctx context.Context, workerID string) error {
	return s.bumpCounter(ctx, workerID, "sla_violations")
}

func (s *PostgresStore) IncrementCompleted(ctx context.Context, workerID string) error {
	return s.bumpCounter(ctx, workerID, "completed_tasks")
}

func (s *PostgresStore) bumpCounter(ctx context.Context, workerID, column string) error {
	// column is one of two compile-time constants, never user input.
	query := fmt.Sprintf(`UPDATE profiles SET %s = %s + 1 WHERE id = $1 AND role = 'worker'`, column, column)
	tag, err := s.pool.Exec(ctx, query, workerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkerNotFound
	}
	return nil
}

func (s *PostgresStore) SetTotalScore(ctx context.Context, workerID string, score float64) error {
	query := `UPDATE profiles SET total_score = $2 WHERE id = $1 AND role = 'worker'`
	tag, err := s.pool.Exec(ctx, query, workerID, score)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkerNotFound
	}
	return nil
}
