package models

import (
	"errors"
	"fmt"
)

// Ошибки покупки курса. Первая четвёрка прерывает покупку до каких-либо изменений,
// обработчики транслируют их в соответствующие HTTP-статусы.
var (
	// ErrCourseNotFound — курс с указанным ID не существует.
	ErrCourseNotFound = errors.New("course not found")
	// ErrAlreadySubscribed — подписка на пару (пользователь, курс) уже существует.
	ErrAlreadySubscribed = errors.New("already subscribed to course")
)

// InsufficientFundsError — бонусов на балансе меньше цены курса.
// Содержит текущий баланс, требуемую сумму и недостачу.
type InsufficientFundsError struct {
	CurrentBalance int // Текущий баланс пользователя
	Required       int // Цена курса
	Deficit        int // Недостающая сумма, Required - CurrentBalance
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, required %d, deficit %d",
		e.CurrentBalance, e.Required, e.Deficit)
}
