// Command claim_smoke drives a running server through a referral claim:
// it creates an inviter and an invitee, incubates the invitee's egg and
// claims, then prints both balances.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"croco_webapp/internal/db"
	"croco_webapp/internal/repository"
	"croco_webapp/internal/service"
	"croco_webapp/internal/telegram"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := fmt.Sprintf("http://127.0.0.1:%s/api/v1", port)

	pool := db.Connect(dsn)
	defer pool.Close()

	service.InitJWT(jwtSecret)
	store := repository.NewPgStore(pool)
	audit := service.NewAuditService(store)
	eggs := service.NewEggService(store, time.Now, audit)
	accounts := service.NewAccountService(store, eggs, time.Now, 4*time.Hour, telegram.DefaultAgeTable, nil, audit)

	ctx := context.Background()

	// prepare users
	inviter, err := accounts.Login(ctx, service.LoginRequest{User: &telegram.WebAppUser{ID: 3001, Username: "smokeA", FirstName: "A"}})
	if err != nil {
		log.Fatalf("login inviter: %v", err)
	}
	invitee, err := accounts.Login(ctx, service.LoginRequest{
		User:         &telegram.WebAppUser{ID: 3002, Username: "smokeB", FirstName: "B"},
		ReferralCode: inviter.User.ReferralCode,
	})
	if err != nil {
		log.Fatalf("login invitee: %v", err)
	}
	log.Printf("inviter=%d code=%s invitee=%d tree_path=%q", inviter.User.ID, inviter.User.ReferralCode, invitee.User.ID, invitee.User.TreePath)

	client := &http.Client{Timeout: 5 * time.Second}
	call := func(method, path, token string) map[string]any {
		req, err := http.NewRequestWithContext(ctx, method, base+path, nil)
		if err != nil {
			log.Fatalf("%s %s: %v", method, path, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		res, err := client.Do(req)
		if err != nil {
			log.Fatalf("%s %s: %v", method, path, err)
		}
		defer res.Body.Close()

		raw, _ := io.ReadAll(res.Body)
		log.Printf("%s %s -> %d %s", method, path, res.StatusCode, raw)

		var obj map[string]any
		_ = json.Unmarshal(raw, &obj)
		return obj
	}

	call(http.MethodPost, "/user/start-hatching", invitee.Token)
	claim := call(http.MethodPost, "/user/claim-token", invitee.Token)
	if claim["success"] != true {
		log.Printf("claim refused: %v (a previous run may still be inside the cycle)", claim["message"])
	}

	me := call(http.MethodGet, "/user/me", inviter.Token)
	if user, ok := me["user"].(map[string]any); ok {
		log.Printf("inviter croco=%v referral_token=%v", user["croco_balance"], user["referral_token"])
	}

	log.Println("smoke test finished")
}
