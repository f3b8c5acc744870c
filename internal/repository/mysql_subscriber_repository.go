package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"newsletter-go/internal/models"
)

const createSubscriptionsTable = `CREATE TABLE IF NOT EXISTS subscriptions (
	id CHAR(36) NOT NULL PRIMARY KEY,
	email VARCHAR(320) NOT NULL,
	name VARCHAR(255) NOT NULL,
	subscribed_at DATETIME(6) NOT NULL
) CHARACTER SET utf8mb4`

type MySQLOptions struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

type MySQLSubscriberRepository struct {
	db     *sql.DB
	tracer trace.Tracer
}

// OpenMySQL connects using the go-sql-driver DSN and verifies the connection.
// The DSN should set parseTime=true so DATETIME scans into time.Time.
func OpenMySQL(ctx context.Context, opts MySQLOptions) (*sql.DB, error) {
	db, err := sql.Open("mysql", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

func NewMySQLSubscriberRepository(db *sql.DB) *MySQLSubscriberRepository {
	return &MySQLSubscriberRepository{
		db:     db,
		tracer: otel.Tracer("mysql.repository"),
	}
}

func (r *MySQLSubscriberRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSubscriptionsTable); err != nil {
		return fmt.Errorf("create subscriptions table: %w", err)
	}
	return nil
}

func (r *MySQLSubscriberRepository) Create(ctx context.Context, subscriber *models.Subscriber) error {
	ctx, span := r.tracer.Start(ctx, "subscriber.repository.create",
		trace.WithAttributes(
			attribute.String("subscriber.id", subscriber.ID.String()),
			attribute.String("subscriber.email", subscriber.Email),
			attribute.String("operation", "database.write"),
			attribute.String("db.system", "mysql"),
		))
	defer span.End()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO subscriptions (id, email, name, subscribed_at) VALUES (?, ?, ?, ?)",
		subscriber.ID.String(), subscriber.Email, subscriber.Name, subscriber.SubscribedAt)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("insert subscription: %w", err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return nil
}

func (r *MySQLSubscriberRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscriber, error) {
	ctx, span := r.tracer.Start(ctx, "subscriber.repository.get_by_id",
		trace.WithAttributes(
			attribute.String("subscriber.id", id.String()),
			attribute.String("operation", "database.read"),
			attribute.String("db.system", "mysql"),
		))
	defer span.End()

	row := r.db.QueryRowContext(ctx,
		"SELECT id, email, name, subscribed_at FROM subscriptions WHERE id = ? LIMIT 1", id.String())
	subscriber, err := scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, models.ErrSubscriberNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("select subscription: %w", err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return subscriber, nil
}

func (r *MySQLSubscriberRepository) GetAll(ctx context.Context) ([]*models.Subscriber, error) {
	ctx, span := r.tracer.Start(ctx, "subscriber.repository.get_all",
		trace.WithAttributes(
			attribute.String("operation", "database.read"),
			attribute.String("db.system", "mysql"),
		))
	defer span.End()

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, email, name, subscribed_at FROM subscriptions ORDER BY subscribed_at")
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("select subscriptions: %w", err)
	}
	defer rows.Close()

	var subscribers []*models.Subscriber
	for rows.Next() {
		subscriber, err := scanSubscriber(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subscribers = append(subscribers, subscriber)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	span.SetAttributes(
		attribute.Int("subscriber.count", len(subscribers)),
		attribute.Bool("success", true),
	)
	return subscribers, nil
}

func (r *MySQLSubscriberRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(row rowScanner) (*models.Subscriber, error) {
	var (
		s  models.Subscriber
		id string
	)
	if err := row.Scan(&id, &s.Email, &s.Name, &s.SubscribedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid subscriber id %q: %w", id, err)
	}
	s.ID = parsed
	s.SubscribedAt = s.SubscribedAt.UTC()
	return &s, nil
}
