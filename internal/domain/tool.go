package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tool — HTTP-инструмент, доступный узлам agent.
//
// Инструмент описывает один HTTP-эндпоинт: модель получает его
// как function-схему, а вызов транслируется в HTTP-запрос
// (GET/DELETE — параметры в query string, POST/PUT — JSON-тело).
type Tool struct {
	// ID — уникальный идентификатор инструмента.
	ID uuid.UUID `json:"id"`

	// Name — имя инструмента, видимое модели.
	Name string `json:"name"`

	// Description — описание назначения инструмента для модели.
	Description string `json:"description,omitempty"`

	// APIURL — URL эндпоинта.
	APIURL string `json:"api_url"`

	// Method — HTTP-метод: GET, POST, PUT, DELETE.
	Method string `json:"method"`

	// Headers — дополнительные заголовки запроса.
	Headers map[string]string `json:"headers,omitempty"`

	// Parameters — параметры инструмента, видимые модели.
	Parameters []ToolParameter `json:"parameters,omitempty"`

	// UserID — владелец инструмента.
	UserID uuid.UUID `json:"user_id"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// ToolParameter — один параметр инструмента.
// Все параметры строковые и обязательные для модели.
type ToolParameter struct {
	// Name — имя параметра.
	Name string `json:"name"`

	// Description — описание параметра для модели.
	Description string `json:"description,omitempty"`
}
