package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestIdentity(t *testing.T) {
	initData := url.Values{
		"query_id":  {"AAF"},
		"user":      {`{"id":424242,"first_name":"Ali","username":"ali"}`},
		"auth_date": {"1700000000"},
		"hash":      {"abc"},
	}.Encode()

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"telegram init data", map[string]string{TelegramInitDataHeader: initData}, "424242"},
		{"plain header", map[string]string{UserIDHeader: " u-7 "}, "u-7"},
		{"init data wins", map[string]string{TelegramInitDataHeader: initData, UserIDHeader: "u-7"}, "424242"},
		{"malformed init data falls back", map[string]string{TelegramInitDataHeader: "user=%7Bbroken", UserIDHeader: "u-7"}, "u-7"},
		{"init data without user", map[string]string{TelegramInitDataHeader: "auth_date=1"}, ""},
		{"anonymous", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetUserID(r.Context())
			}))

			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("user id = %q, want %q", got, tt.want)
			}
		})
	}
}
