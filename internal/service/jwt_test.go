package service

import (
	"errors"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, 777, t0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	id, err := ParseJWT(token, t0.Add(time.Hour))
	if err != nil || id != 42 {
		t.Fatalf("parse: id=%d err=%v", id, err)
	}

	if _, err := ParseJWT(token, t0.Add(25*time.Hour)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: %v", err)
	}
	if _, err := ParseJWT(token+"x", t0); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered token: %v", err)
	}
	if _, err := ParseJWT("not-a-token", t0); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: %v", err)
	}
}
