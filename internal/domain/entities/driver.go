package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Role роль пользователя
type Role string

const (
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

// IsValid проверяет известную роль
func (r Role) IsValid() bool {
	return r == RoleDriver || r == RoleAdmin
}

// Metadata дополнительные данные в формате JSON
type Metadata map[string]interface{}

// Value реализует интерфейс driver.Valuer для сериализации в БД
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan реализует интерфейс sql.Scanner для десериализации из БД
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(Metadata)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", value)
	}

	return json.Unmarshal(bytes, m)
}

// Driver пользователь системы. ID выдает провайдер идентификации.
type Driver struct {
	ID        string    `json:"id" db:"id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	Metadata  Metadata  `json:"metadata" db:"metadata"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin проверяет права администратора
func (d *Driver) IsAdmin() bool {
	return d.Role == RoleAdmin
}

// DisplayName возвращает имя для отображения
func (d *Driver) DisplayName() string {
	if strings.TrimSpace(d.FullName) == "" {
		return "Unknown"
	}
	return d.FullName
}

// Initials возвращает инициалы для маркера на карте
func (d *Driver) Initials() string {
	return Initials(d.DisplayName())
}

// Initials первые буквы каждого слова имени
func Initials(fullName string) string {
	var b strings.Builder
	for _, part := range strings.Fields(fullName) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Validate проверяет валидность данных водителя
func (d *Driver) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrInvalidDriverID
	}

	if strings.TrimSpace(d.FullName) == "" {
		return ErrInvalidName
	}

	if d.Email == "" || !strings.Contains(d.Email, "@") {
		return ErrInvalidEmail
	}

	if !d.Role.IsValid() {
		return ErrInvalidRole
	}

	return nil
}

// NewDriver создает нового водителя
func NewDriver(id, fullName, email string) *Driver {
	now := time.Now()
	return &Driver{
		ID:        id,
		FullName:  strings.TrimSpace(fullName),
		Email:     strings.TrimSpace(email),
		Role:      RoleDriver,
		Metadata:  make(Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DriverFilters фильтры для поиска водителей
type DriverFilters struct {
	Role   *Role `json:"role,omitempty"`
	Limit  int   `json:"limit,omitempty"`
	Offset int   `json:"offset,omitempty"`
}

// DriverSummary краткая информация о водителе
type DriverSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Initials string `json:"initials"`
	Role     Role   `json:"role"`
}

// ToSummary возвращает краткую информацию о водителе
func (d *Driver) ToSummary() *DriverSummary {
	return &DriverSummary{
		ID:       d.ID,
		Name:     d.DisplayName(),
		Initials: d.Initials(),
		Role:     d.Role,
	}
}
