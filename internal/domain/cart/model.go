package cart

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrFull = errors.New("cart is full")

const DefaultMaxItems = 20

// Cart список кодов вещей одной сессии, без повторов.
type Cart struct {
	SessionID string    `json:"session_id"`
	Codes     []string  `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) Contains(code string) bool {
	return slices.Contains(c.Codes, strings.TrimSpace(code))
}

// Add добавляет код; повторное добавление ничего не меняет (false).
func (c *Cart) Add(code string, maxItems int) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, fmt.Errorf("empty item code")
	}
	if c.Contains(code) {
		return false, nil
	}
	if maxItems > 0 && len(c.Codes) >= maxItems {
		return false, fmt.Errorf("%w: limit %d items", ErrFull, maxItems)
	}
	c.Codes = append(c.Codes, code)
	return true, nil
}

// Remove false, если кода в корзине не было.
func (c *Cart) Remove(code string) bool {
	code = strings.TrimSpace(code)
	i := slices.Index(c.Codes, code)
	if i < 0 {
		return false
	}
	c.Codes = slices.Delete(c.Codes, i, i+1)
	return true
}

func (c *Cart) Clear() { c.Codes = nil }

func (c *Cart) Len() int { return len(c.Codes) }

func (c *Cart) clone() *Cart {
	out := *c
	out.Codes = slices.Clone(c.Codes)
	return &out
}

// NewSessionID идентификатор корзины для веб-клиента.
func NewSessionID() string { return uuid.NewString() }

// TelegramSession идентификатор корзины чата.
func TelegramSession(chatID int64) string { return fmt.Sprintf("tg:%d", chatID) }
