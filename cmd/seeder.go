package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users and catalog products for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			for _, table := range []string{"payments", "orders", "products", "users"} {
				if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), cfg.Security.BCryptCost)

		users := []struct {
			Email string
			Name  string
			Role  string
		}{
			{"admin@storefront.test", "Store Admin", "admin"},
			{"customer@storefront.test", "Test Customer", "customer"},
		}

		for _, u := range users {
			var exists int
			err := db.QueryRow("SELECT 1 FROM users WHERE email = $1", u.Email).Scan(&exists)
			if err == nil {
				fmt.Println("user already exists:", u.Email)
				continue
			}

			_, err = db.Exec(
				"INSERT INTO users (id, email, name, password_hash, role, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, true, now(), now())",
				uuid.NewString(), u.Email, u.Name, string(hash), u.Role)
			if err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Println("Seeded user:", u.Email, "role:", u.Role)
		}

		products := []struct {
			Title string
			Price float64
			Image string
		}{
			{"Wireless Earbuds", 2499.00, "/images/earbuds.jpg"},
			{"Mechanical Keyboard", 5310.00, "/images/keyboard.jpg"},
			{"USB-C Charger 65W", 1499.00, "/images/charger.jpg"},
			{"Laptop Stand", 999.00, "/images/stand.jpg"},
			{"Noise Cancelling Headphones", 12999.00, "/images/headphones.jpg"},
		}

		for _, p := range products {
			var exists int
			err := db.QueryRow("SELECT 1 FROM products WHERE title = $1", p.Title).Scan(&exists)
			if err == nil {
				fmt.Println("product already exists:", p.Title)
				continue
			}

			_, err = db.Exec(
				"INSERT INTO products (id, title, price, image, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, true, now(), now())",
				uuid.NewString(), p.Title, p.Price, p.Image)
			if err != nil {
				log.Fatalf("failed to insert product %s: %v", p.Title, err)
			}
			fmt.Println("Seeded product:", p.Title)
		}

		fmt.Println("Seeding complete")
	},
}
