package main

import (
	"log"

	"github.com/your-org/template-marketplace/internal/config"
	"github.com/your-org/template-marketplace/internal/domain/template"
	"github.com/your-org/template-marketplace/internal/infrastructure/database/postgres"
)

func pct(v float64) *float64 { return &v }

// Seeds the catalog with a starter set of templates for local development.
// Usage: go run scripts/seed_templates.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := postgres.NewConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	migration := postgres.NewMigration(db.GetDB())
	if err := migration.RunAutoMigrations(); err != nil {
		log.Fatal("Migration failed:", err)
	}

	svc := template.NewService(db.GetDB(), nil, cfg)

	seeds := []template.TemplateCreateRequest{
		{Title: "Startup Landing", Price: 29.00, Category: "landing", Tags: "startup,saas,hero", IsFeatured: true},
		{Title: "Portfolio Minimal", Price: 19.00, Category: "portfolio", Tags: "portfolio,minimal"},
		{Title: "Agency Bold", Price: 49.00, DiscountPercentage: pct(20), Category: "agency", Tags: "agency,studio"},
		{Title: "Blog Classic", Price: 15.00, Category: "blog", Tags: "blog,writing"},
		{Title: "Commerce Starter Pack", Price: 99.00, DiscountPercentage: pct(30), Category: "ecommerce", Tags: "shop,store", IsPack: true, IsFeatured: true},
	}

	created := 0
	for _, seed := range seeds {
		if _, err := svc.CreateTemplate(&seed); err != nil {
			log.Printf("⚠️ Skipping %q: %v", seed.Title, err)
			continue
		}
		created++
	}

	log.Printf("✅ Seeded %d templates", created)
}
