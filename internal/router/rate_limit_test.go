package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	keyFunc := KeyByIPAndParam("order_no")
	var got string
	r.POST("/callback/:order_no", func(c *gin.Context) {
		got = keyFunc(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/callback/PR2026", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	r.ServeHTTP(w, req)

	if got != "PR2026|1.2.3.4" {
		t.Fatalf("key want PR2026|1.2.3.4 got %s", got)
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, nil))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := []struct {
		name   string
		ttl    time.Duration
		window int
		want   int
	}{
		{name: "ttl", ttl: 42 * time.Second, window: 60, want: 42},
		{name: "no ttl", ttl: -1, window: 60, want: 60},
		{name: "no window", ttl: 0, window: 0, want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := retryAfterSeconds(tc.ttl, tc.window); got != tc.want {
				t.Fatalf("want %d got %d", tc.want, got)
			}
		})
	}
}

func TestRateLimitRuleKey(t *testing.T) {
	rule := RateLimitRule{Prefix: "jx:rate:promotion_callback", WindowSeconds: 60, MaxRequests: 10}
	if !rule.enabled() {
		t.Fatalf("rule should be enabled")
	}
	if got := rule.key("PR1|1.2.3.4"); got != "jx:rate:promotion_callback:PR1|1.2.3.4" {
		t.Fatalf("unexpected key %s", got)
	}
	if (RateLimitRule{WindowSeconds: 60}).enabled() {
		t.Fatalf("rule without max requests should be disabled")
	}
}
