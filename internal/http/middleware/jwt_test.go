package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"croco_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

func TestJWT(t *testing.T) {
	service.InitJWT("middleware-secret")

	r := gin.New()
	r.GET("/me", JWT(), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(200, gin.H{"id": id})
	})

	token, err := service.GenerateJWT(42, 4200, time.Now())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusOK && rec.Body.String() != `{"id":42}` {
				t.Fatalf("body %s", rec.Body.String())
			}
		})
	}
}
