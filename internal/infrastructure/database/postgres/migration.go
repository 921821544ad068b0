// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/template-marketplace/internal/domain/cart"
	"github.com/your-org/template-marketplace/internal/domain/purchase"
	"github.com/your-org/template-marketplace/internal/domain/template"
	"github.com/your-org/template-marketplace/internal/domain/user"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		&user.User{},

		&template.Template{},
		&template.Review{},

		&cart.CartItem{},

		&purchase.Purchase{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC)",

		// Template indexes
		"CREATE INDEX IF NOT EXISTS idx_templates_category_active ON templates(category, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_templates_featured ON templates(is_featured, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_templates_price ON templates(price)",
		"CREATE INDEX IF NOT EXISTS idx_templates_created_at ON templates(created_at DESC)",

		// Review indexes
		"CREATE INDEX IF NOT EXISTS idx_reviews_template_approved ON reviews(template_id, is_approved)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_template_user ON reviews(template_id, user_id)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user ON cart_items(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_cart_items_created_at ON cart_items(created_at DESC)",

		// Purchase history indexes
		"CREATE INDEX IF NOT EXISTS idx_purchase_history_user_date ON purchase_history(user_id, purchase_date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_purchase_history_payment_status ON purchase_history(payment_status)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}
