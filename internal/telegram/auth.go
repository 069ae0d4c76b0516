package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidInitData = errors.New("invalid telegram init data")
	ErrStaleInitData   = errors.New("stale telegram init data")
)

const (
	// MaxInitDataAge rejects replays of old init data.
	MaxInitDataAge = time.Hour
	maxClockSkew   = 5 * time.Minute
)

// ValidateInitData verifies Telegram WebApp init_data HMAC and checks
// that the auth_date is recent to mitigate replay attacks.
func ValidateInitData(initData, botToken string, now time.Time) (url.Values, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrInvalidInitData
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrInvalidInitData
	}
	values.Del("hash")

	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, ErrInvalidInitData
	}
	if !hmac.Equal(Sign(values, botToken), provided) {
		return nil, ErrInvalidInitData
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, ErrInvalidInitData
	}
	// допускаем небольшой сдвиг часов, но не старше часа
	age := now.Sub(time.Unix(authDate, 0))
	if age > MaxInitDataAge || age < -maxClockSkew {
		return nil, ErrStaleInitData
	}

	return values, nil
}

// Sign computes the init_data hash over every field except hash.
func Sign(values url.Values, botToken string) []byte {
	var dataCheck []string
	for k, v := range values {
		if k == "hash" {
			continue
		}
		dataCheck = append(dataCheck, k+"="+strings.Join(v, ""))
	}
	sort.Strings(dataCheck)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(strings.Join(dataCheck, "\n")))
	return h.Sum(nil)
}
