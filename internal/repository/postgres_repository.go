package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Postgres keeps microseconds.
const postgresTimePrecision = time.Microsecond

const upsertOrderQuery = `INSERT INTO orders (id, products, customer_info, delivery_info, is_paid, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		products = EXCLUDED.products,
		customer_info = EXCLUDED.customer_info,
		delivery_info = EXCLUDED.delivery_info,
		is_paid = EXCLUDED.is_paid,
		created_at = EXCLUDED.created_at`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(ctx context.Context, cred *Credentials) (*PostgresRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.PingContext(ctx); e2 != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(minIdleConns)
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, products, customer_info, delivery_info, is_paid, created_at
	          FROM orders WHERE id = $1`

	var order domain.Order
	var productsJSON, customerJSON, deliveryJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.OrderID,
		&productsJSON,
		&customerJSON,
		&deliveryJSON,
		&order.IsPaid,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if err := json.Unmarshal(productsJSON, &order.Products); err != nil {
		return nil, fmt.Errorf("unmarshal order products: %w", err)
	}
	if err := json.Unmarshal(customerJSON, &order.CustomerInfo); err != nil {
		return nil, fmt.Errorf("unmarshal customer info: %w", err)
	}
	if err := json.Unmarshal(deliveryJSON, &order.DeliveryInfo); err != nil {
		return nil, fmt.Errorf("unmarshal delivery info: %w", err)
	}
	order.CreatedAt = order.CreatedAt.UTC()

	return &order, nil
}

func (r *PostgresRepository) SaveOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	stored, args, err := upsertArgs(order)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx, upsertOrderQuery, args...); err != nil {
		return nil, fmt.Errorf("upsert order: %w", err)
	}
	return stored, nil
}

func (r *PostgresRepository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order rows affected: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// SaveOrders upserts the whole batch in one transaction.
func (r *PostgresRepository) SaveOrders(ctx context.Context, orders []*domain.Order) ([]*domain.Order, error) {
	if len(orders) == 0 {
		return []*domain.Order{}, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertOrderQuery)
	if err != nil {
		return nil, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	saved := make([]*domain.Order, 0, len(orders))
	for _, order := range orders {
		stored, args, err := upsertArgs(order)
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return nil, fmt.Errorf("upsert order %s: %w", order.OrderID, err)
		}
		saved = append(saved, stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return saved, nil
}

func (r *PostgresRepository) DeleteOrdersCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired orders: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired orders rows affected: %w", err)
	}
	return affected, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// upsertArgs returns the order as it will be stored along with the query
// arguments for upsertOrderQuery.
func upsertArgs(order *domain.Order) (*domain.Order, []any, error) {
	stored := *order
	stored.CreatedAt = order.CreatedAt.UTC().Truncate(postgresTimePrecision)
	if stored.Products == nil {
		stored.Products = []domain.Product{}
	}

	productsJSON, err := json.Marshal(stored.Products)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal order products: %w", err)
	}
	customerJSON, err := json.Marshal(stored.CustomerInfo)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal customer info: %w", err)
	}
	deliveryJSON, err := json.Marshal(stored.DeliveryInfo)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal delivery info: %w", err)
	}

	return &stored, []any{
		stored.OrderID,
		string(productsJSON),
		string(customerJSON),
		string(deliveryJSON),
		stored.IsPaid,
		stored.CreatedAt,
	}, nil
}
