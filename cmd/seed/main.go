// Command seed loads the shop catalog from a TOML file into the database.
package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"croco_webapp/internal/db"
	"croco_webapp/internal/repository"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed catalog.toml
var defaultCatalog []byte

func main() {
	_ = godotenv.Load()

	file := flag.String("file", "", "catalog TOML file (defaults to the built-in catalog)")
	dryRun := flag.Bool("dry-run", false, "parse and validate only")
	flag.Parse()

	raw := defaultCatalog
	if *file != "" {
		b, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("read catalog: %v", err)
		}
		raw = b
	}

	catalog, err := parseCatalog(raw)
	if err != nil {
		log.Fatalf("invalid catalog: %v", err)
	}
	log.Printf("catalog: %d speed, %d boost, %d fish items", len(catalog.Speed), len(catalog.Boost), len(catalog.Fish))
	if *dryRun {
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	pool := db.Connect(dsn)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repository.NewPgStore(pool).ReplaceCatalog(ctx, catalog); err != nil {
		log.Fatalf("replace catalog: %v", err)
	}
	log.Println("catalog seeded")
}

func parseCatalog(raw []byte) (repository.Catalog, error) {
	var c repository.Catalog
	if err := toml.Unmarshal(raw, &c); err != nil {
		return c, err
	}
	return c, validateCatalog(c)
}

func validateCatalog(c repository.Catalog) error {
	seen := map[int64]bool{}
	for _, it := range c.Speed {
		if it.ID <= 0 || seen[it.ID] {
			return fmt.Errorf("speed item %d: id must be positive and unique", it.ID)
		}
		if it.Speed <= 1 || !it.Price.IsPositive() {
			return fmt.Errorf("speed item %d: speed must exceed 1 and price must be positive", it.ID)
		}
		seen[it.ID] = true
	}

	seen = map[int64]bool{}
	for _, it := range c.Boost {
		if it.ID <= 0 || seen[it.ID] {
			return fmt.Errorf("boost item %d: id must be positive and unique", it.ID)
		}
		if it.Speed <= 1 || it.Duration <= 0 || !it.FishPrice.IsPositive() {
			return fmt.Errorf("boost item %d: invalid speed, duration or price", it.ID)
		}
		seen[it.ID] = true
	}

	seen = map[int64]bool{}
	for _, it := range c.Fish {
		if it.ID <= 0 || seen[it.ID] {
			return fmt.Errorf("fish item %d: id must be positive and unique", it.ID)
		}
		if !it.Amount.IsPositive() {
			return fmt.Errorf("fish item %d: amount must be positive", it.ID)
		}
		seen[it.ID] = true
	}
	return nil
}
