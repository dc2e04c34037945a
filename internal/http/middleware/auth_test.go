package middleware

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBearerAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name, token, header string
		want                int
	}{
		{"valid", "s3cret", "Bearer s3cret", http.StatusOK},
		{"wrong token", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong scheme", "s3cret", "Basic s3cret", http.StatusUnauthorized},
		{"unconfigured", "", "Bearer ", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(BearerAuth(tc.token))
			r.GET("/settings", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/settings", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d; want %d", w.Code, tc.want)
			}
			if tc.want == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
				t.Fatalf("missing WWW-Authenticate")
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	var seen []byte
	r := gin.New()
	r.Use(VerifySignature(pub))
	r.POST("/interactions", func(c *gin.Context) {
		seen, _ = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	body := []byte(`{"type":1}`)
	const ts = "1700000000"
	sign := func(msg []byte) string { return hex.EncodeToString(ed25519.Sign(priv, msg)) }

	send := func(sig string, payload []byte) int {
		req := httptest.NewRequest(http.MethodPost, "/interactions", bytes.NewReader(payload))
		req.Header.Set("X-Signature-Ed25519", sig)
		req.Header.Set("X-Signature-Timestamp", ts)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send(sign(append([]byte(ts), body...)), body); code != http.StatusOK {
		t.Fatalf("valid signature rejected: %d", code)
	}
	if !bytes.Equal(seen, body) {
		t.Fatalf("body not restored after verification: %q", seen)
	}
	if code := send(sign(append([]byte(ts), body...)), []byte(`{"type":2}`)); code != http.StatusUnauthorized {
		t.Fatalf("tampered body accepted: %d", code)
	}
	if code := send("", body); code != http.StatusUnauthorized {
		t.Fatalf("missing signature accepted: %d", code)
	}
}
