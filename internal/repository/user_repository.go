package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kyberwheel/backend/internal/models"
	"github.com/kyberwheel/backend/internal/repository/common"
)

var (
	// ErrUserNotFound возвращается, когда запись пользователя не найдена.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists возвращается при нарушении уникальности email или телефона.
	ErrUserExists = errors.New("user already exists")
)

const userColumns = "id, email, phone, password_hash, created_at"

// UserRepository отвечает за работу с таблицей users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create сохраняет нового пользователя. Уникальность email обеспечивает ограничение в базе,
// его нарушение возвращается как ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, phone, password_hash, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.ID, user.Email, user.Phone, user.PasswordHash,
	).Scan(&user.CreatedAt); err != nil {
		if constraint, ok := common.IsUniqueViolation(err); ok {
			return fmt.Errorf("user repository: create (%s): %w", constraint, ErrUserExists)
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := common.GetByField[models.User](ctx, r.db, "users", userColumns, "email", email, ErrUserNotFound)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("user repository: %w", err)
	}
	return user, err
}

// GetByPhone возвращает пользователя по каноническому номеру телефона.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := common.GetByField[models.User](ctx, r.db, "users", userColumns, "phone", phone, ErrUserNotFound)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("user repository: %w", err)
	}
	return user, err
}

// FindOrCreateByPhone возвращает пользователя с данным телефоном, создавая его с newID при отсутствии.
// Вставка с ON CONFLICT делает операцию безопасной при параллельных подтверждениях.
func (r *UserRepository) FindOrCreateByPhone(ctx context.Context, phone, newID string) (*models.User, bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, phone, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (phone) DO NOTHING
	`, newID, phone)
	if err != nil {
		return nil, false, fmt.Errorf("user repository: find or create by phone %w", err)
	}

	created := false
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		created = true
	}

	user, err := r.GetByPhone(ctx, phone)
	if err != nil {
		return nil, false, err
	}

	return user, created, nil
}
