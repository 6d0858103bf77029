package util

import (
	"golang.org/x/crypto/bcrypt"
)

// hashCost keeps a single hash around a quarter second on current hardware.
const hashCost = 12

// HashPassword derives the bcrypt hash stored for a customer account.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plain password matches the stored hash.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
