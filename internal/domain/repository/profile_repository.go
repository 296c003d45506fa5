package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"challengearena/internal/common"
	"challengearena/internal/domain/model"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *model.Profile) error
	FindByID(ctx context.Context, id string) (*model.Profile, error)
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Profile, error)
	SetRole(ctx context.Context, id, role string, companyName *string) error
	UpdateDetails(ctx context.Context, id, fullName string, avatarURL *string) error
	AddScore(ctx context.Context, tx *sql.Tx, id string, delta int) error
}

type pgProfileRepository struct {
	db *sql.DB
}

func NewPgProfileRepository(db *sql.DB) ProfileRepository {
	return &pgProfileRepository{db: db}
}

const profileColumns = `id, full_name, email, hashed_password, avatar_url, role, company_name, score, created_at, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (*model.Profile, error) {
	p := &model.Profile{}
	err := row.Scan(
		&p.ID, &p.FullName, &p.Email, &p.HashedPassword, &p.AvatarURL,
		&p.Role, &p.CompanyName, &p.Score, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	query := `INSERT INTO profiles (id, full_name, email, hashed_password, role)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, profile.ID, profile.FullName, profile.Email, profile.HashedPassword, profile.Role)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("profile with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProfileRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProfileRepository) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProfileRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *pgProfileRepository) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProfileRepository.FindByEmail: %w", err)
	}
	return p, nil
}

func (r *pgProfileRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("pgProfileRepository.FindByIDs query: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("pgProfileRepository.FindByIDs scan: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProfileRepository.FindByIDs rows.Err: %w", err)
	}
	return profiles, nil
}

func (r *pgProfileRepository) SetRole(ctx context.Context, id, role string, companyName *string) error {
	query := `UPDATE profiles SET role = $1, company_name = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, role, companyName, id)
	if err != nil {
		return fmt.Errorf("pgProfileRepository.SetRole: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProfileRepository) UpdateDetails(ctx context.Context, id, fullName string, avatarURL *string) error {
	query := `UPDATE profiles SET full_name = $1, avatar_url = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, fullName, avatarURL, id)
	if err != nil {
		return fmt.Errorf("pgProfileRepository.UpdateDetails: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProfileRepository) AddScore(ctx context.Context, tx *sql.Tx, id string, delta int) error {
	query := `UPDATE profiles SET score = score + $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, delta, id)
	} else {
		_, err = r.db.ExecContext(ctx, query, delta, id)
	}
	if err != nil {
		return fmt.Errorf("pgProfileRepository.AddScore: %w", err)
	}
	return nil
}
