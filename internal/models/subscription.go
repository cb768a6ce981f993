package models

import "time"

// Subscription — запись о купленном курсе, не более одной на пару (пользователь, курс).
// После создания не изменяется.
type Subscription struct {
	ID        int       `json:"id"`         // Идентификатор подписки
	UserUID   string    `json:"user"`       // Покупатель
	CourseID  int       `json:"course"`     // Купленный курс
	CreatedAt time.Time `json:"created_at"` // Момент покупки
}

// DummySubscription — структура создаваемой подписки для валидации перед записью.
type DummySubscription struct {
	UserUID  string `json:"user" validate:"required,uuid"`   // Покупатель
	CourseID int    `json:"course" validate:"required,gt=0"` // Курс
}

// PaymentDetails — детали списания бонусов при покупке курса.
type PaymentDetails struct {
	Amount           int `json:"amount"`            // Списанная сумма
	PreviousBalance  int `json:"previous_balance"`  // Баланс до списания
	RemainingBalance int `json:"remaining_balance"` // Баланс после списания
}

// PurchaseResult — результат успешной покупки курса.
type PurchaseResult struct {
	Message        string         `json:"message"`
	Subscription   Subscription   `json:"subscription"`
	PaymentDetails PaymentDetails `json:"payment_details"`
}

// PurchaseReceipt — итог транзакции списания и создания подписки в хранилище.
type PurchaseReceipt struct {
	SubscriptionID   int       // Идентификатор созданной подписки
	CreatedAt        time.Time // Момент создания подписки
	PreviousBalance  int       // Баланс до списания
	RemainingBalance int       // Баланс после списания
}

// ReceiptEvent — событие о покупке курса для очереди уведомлений.
type ReceiptEvent struct {
	Email            string `json:"email"`
	Username         string `json:"username"`
	CourseTitle      string `json:"course_title"`
	Amount           int    `json:"amount"`
	RemainingBalance int    `json:"remaining_balance"`
}

// AllocationFailureEvent — событие о неудачном распределении покупателя в группу.
// Публикуется для последующей ручной выверки: покупка при этом уже состоялась.
type AllocationFailureEvent struct {
	CourseID int    `json:"course_id"`
	UserUID  string `json:"user_uid"`
	Reason   string `json:"reason"`
}
