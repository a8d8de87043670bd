package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kyberwheel/backend/internal/models"
)

// ErrOTPNotFound возвращается, если для номера нет выданного кода.
var ErrOTPNotFound = errors.New("otp code not found")

// OTPRepository хранит одноразовые коды в таблице otp_codes, одна строка на номер.
type OTPRepository struct {
	db *sqlx.DB
}

// NewOTPRepository создаёт экземпляр репозитория.
func NewOTPRepository(db *sqlx.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Upsert сохраняет код, перезаписывая ранее выданный для этого номера.
func (r *OTPRepository) Upsert(ctx context.Context, code *models.OTPCode) error {
	query := `
		INSERT INTO otp_codes (phone, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone) DO UPDATE
		SET code = EXCLUDED.code,
			expires_at = EXCLUDED.expires_at
	`
	if _, err := r.db.ExecContext(ctx, query, code.Phone, code.Code, code.ExpiresAt); err != nil {
		return fmt.Errorf("otp repository: upsert %w", err)
	}
	return nil
}

// Get возвращает код для номера.
func (r *OTPRepository) Get(ctx context.Context, phone string) (*models.OTPCode, error) {
	var code models.OTPCode
	query := `SELECT phone, code, expires_at FROM otp_codes WHERE phone = $1`
	if err := r.db.GetContext(ctx, &code, query, phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOTPNotFound
		}
		return nil, fmt.Errorf("otp repository: get %w", err)
	}
	return &code, nil
}

// Delete удаляет код номера. Отсутствие записи не считается ошибкой.
func (r *OTPRepository) Delete(ctx context.Context, phone string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE phone = $1`, phone); err != nil {
		return fmt.Errorf("otp repository: delete %w", err)
	}
	return nil
}

// Consume атомарно удаляет код, если он совпадает и ещё не истёк к now.
// Возвращает true, только если запись удалена этим вызовом.
func (r *OTPRepository) Consume(ctx context.Context, phone, code string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_codes WHERE phone = $1 AND code = $2 AND expires_at >= $3`,
		phone, code, now,
	)
	if err != nil {
		return false, fmt.Errorf("otp repository: consume %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("otp repository: consume rows %w", err)
	}
	return n == 1, nil
}

// PurgeExpired удаляет все коды, истёкшие до before, и возвращает их количество.
func (r *OTPRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("otp repository: purge expired %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
