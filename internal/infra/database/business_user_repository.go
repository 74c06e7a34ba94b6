package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/log"
)

const uniqueViolation = "23505"

type BusinessUserRepository struct {
	DB *sql.DB
}

func NewBusinessUserRepository(db *sql.DB) *BusinessUserRepository {
	return &BusinessUserRepository{DB: db}
}

func (r *BusinessUserRepository) Create(ctx context.Context, u *entity.BusinessUser) error {
	query := `
		INSERT INTO business_users (id, name, email, google_id, plan, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.DB.ExecContext(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		nullString(u.GoogleID),
		string(u.Plan),
		u.IsActive,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return entity.ErrEmailAlreadyExists
		}

		log.Errorf("Erro crítico no banco: %v", err)
		return err
	}

	return nil
}

func (r *BusinessUserRepository) FindByID(ctx context.Context, id string) (*entity.BusinessUser, error) {
	query := `
		SELECT id, name, email, COALESCE(google_id, ''), plan, is_active, created_at, updated_at
		FROM business_users
		WHERE id = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *BusinessUserRepository) FindByEmail(ctx context.Context, email string) (*entity.BusinessUser, error) {
	query := `
		SELECT id, name, email, COALESCE(google_id, ''), plan, is_active, created_at, updated_at
		FROM business_users
		WHERE email = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (r *BusinessUserRepository) scanOne(row *sql.Row) (*entity.BusinessUser, error) {
	var u entity.BusinessUser
	var plan string

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.GoogleID, &plan, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrUserNotFound
		}
		var pqErr *pq.Error
		// uuid malformado no token não é erro de infra
		if errors.As(err, &pqErr) && pqErr.Code == "22P02" {
			return nil, entity.ErrUserNotFound
		}
		return nil, err
	}

	u.Plan = entity.Plan(plan)
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
