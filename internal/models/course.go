package models

import "time"

// Course представляет курс, доступный для покупки за бонусы.
type Course struct {
	ID        int       // Идентификатор курса
	Title     string    // Название курса
	Author    string    // Автор курса
	Price     int       // Цена в бонусах, неотрицательная
	StartDate time.Time // Дата начала курса
}

// Lesson представляет урок, принадлежащий курсу.
type Lesson struct {
	ID       int    // Идентификатор урока
	CourseID int    // Курс, которому принадлежит урок
	Title    string // Название урока
	Link     string // Ссылка на материалы урока
}

// Group представляет учебную группу курса. Группы создаются лениво
// при первой покупке курса, не более десяти на курс.
type Group struct {
	ID            int    // Идентификатор группы
	CourseID      int    // Курс, которому принадлежит группа
	Title         string // Название группы
	StudentsCount int    // Текущее количество студентов в группе
}

// DummyCourse используется для приёма данных курса из JSON-запроса.
// Дата начала приходит строкой, чтобы её можно было валидировать и парсить вручную.
type DummyCourse struct {
	Title     string `json:"title" validate:"required"`      // Название курса
	Author    string `json:"author" validate:"required"`     // Автор курса
	Price     int    `json:"price" validate:"gte=0"`         // Цена в бонусах (>=0)
	StartDate string `json:"start_date" validate:"required"` // Дата начала в формате 02-01-2006
}

// DummyLesson используется для приёма данных урока из JSON-запроса.
type DummyLesson struct {
	Title string `json:"title" validate:"required"` // Название урока
	Link  string `json:"link" validate:"required"`  // Ссылка на материалы
}
