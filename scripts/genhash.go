package main

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Generates bcrypt hashes for seeding local applicant rows. Approval refuses
// applications without a stored password hash, so seed data needs real ones.
func main() {
	passwords := map[string]string{
		"engineer1@example.test":   "Engineer#2024",
		"contractor1@example.test": "Contractor#2024",
		"admin@example.test":       "Portal&Admin99",
	}

	for user, pass := range passwords {
		hash, err := bcrypt.GenerateFromPassword([]byte(pass), 10)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		fmt.Printf("User: %s\nPassword: %s\nHash: %s\n\n", user, pass, string(hash))
	}
}
