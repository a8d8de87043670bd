package models

import (
	"time"
)

// User описывает учётную запись. Email отсутствует у аккаунтов, созданных по телефону,
// PasswordHash отсутствует у аккаунтов без пароля.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        *string   `db:"email" json:"email,omitempty"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// EmailOrEmpty возвращает email или пустую строку.
func (u *User) EmailOrEmpty() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// PhoneOrEmpty возвращает телефон или пустую строку.
func (u *User) PhoneOrEmpty() string {
	if u.Phone == nil {
		return ""
	}
	return *u.Phone
}

// PublicUser публичное представление пользователя в ответах API.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Public строит публичное представление.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.EmailOrEmpty(),
		Phone: u.PhoneOrEmpty(),
	}
}
