package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"croco_webapp/internal/db"
	"croco_webapp/internal/repository"
	"croco_webapp/internal/service"
	"croco_webapp/internal/telegram"
)

func main() {
	// expects DATABASE_URL and JWT_SECRET env vars
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	tgID := flag.Int64("tg", 1234567890, "telegram id")
	ref := flag.String("ref", "", "referral code of the inviter")
	flag.Parse()

	pool := db.Connect(dsn)
	defer pool.Close()

	service.InitJWT(secret)
	store := repository.NewPgStore(pool)
	audit := service.NewAuditService(store)
	eggs := service.NewEggService(store, time.Now, audit)
	accounts := service.NewAccountService(store, eggs, time.Now, 4*time.Hour, telegram.DefaultAgeTable, nil, audit)

	ctx := context.Background()
	res, err := accounts.Login(ctx, service.LoginRequest{
		User:         &telegram.WebAppUser{ID: *tgID, Username: "testuser", FirstName: "Tester"},
		ReferralCode: *ref,
	})
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}

	if res.IsNew {
		log.Printf("user created id=%d\n", res.User.ID)
	} else {
		log.Printf("user already exists id=%d\n", res.User.ID)
	}
	log.Printf("referral_code=%s tree_path=%q egg_id=%d\n", res.User.ReferralCode, res.User.TreePath, res.Egg.ID)
	log.Printf("token=%s\n", res.Token)
}
