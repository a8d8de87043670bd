package models

import "time"

// OTPCode одноразовый код для входа по телефону. Для одного номера хранится не больше одной записи.
type OTPCode struct {
	Phone     string    `db:"phone" json:"phone"`
	Code      string    `db:"code" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

// Expired сообщает, истёк ли код к моменту now.
func (c *OTPCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
