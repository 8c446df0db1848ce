package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/host"
)

const (
	// TelegramInitDataHeader carries the Telegram Web App init data.
	TelegramInitDataHeader = "X-Telegram-Init-Data"
	// UserIDHeader carries a plain user id for non-Telegram clients.
	UserIDHeader = "X-User-ID"
)

type telegramUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Identity stores the caller's user id in the request context.
// The init data signature is not verified; the id is only used to address
// host prompts and to attribute publish records.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := userIDFromRequest(r); userID != "" {
			r = r.WithContext(host.WithUser(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID returns the user id stored by Identity, or "".
func GetUserID(ctx context.Context) string {
	return host.UserFromContext(ctx)
}

func userIDFromRequest(r *http.Request) string {
	if initData := r.Header.Get(TelegramInitDataHeader); initData != "" {
		if id := telegramUserID(initData); id != "" {
			return id
		}
	}
	return strings.TrimSpace(r.Header.Get(UserIDHeader))
}

// telegramUserID extracts user.id from a Telegram init data query string.
func telegramUserID(initData string) string {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return ""
	}
	raw := values.Get("user")
	if raw == "" {
		return ""
	}
	var u telegramUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.ID == 0 {
		return ""
	}
	return strconv.FormatInt(u.ID, 10)
}
