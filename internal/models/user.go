// Package models содержит доменные структуры платформы продажи курсов:
// пользователей, курсы, уроки, группы, балансы и подписки,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта (уникальная)
	Username     string    // Имя пользователя (уникальное)
	PasswordHash string    // Хэш пароля пользователя
	Role         string    // Роль пользователя, admin или user
	RegisteredAt time.Time // Дата регистрации
}

// Balance хранит бонусный баланс пользователя.
// Создаётся с нулём бонусов в момент регистрации пользователя
// и списывается только при покупке курса.
type Balance struct {
	UserUID string `json:"user"`    // Владелец баланса
	Bonuses int    `json:"bonuses"` // Количество бонусов, всегда >= 0
}
