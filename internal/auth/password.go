package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// AdminHashCost is the bcrypt work factor for stored credentials.
const AdminHashCost = 10

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
