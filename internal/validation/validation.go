// Package validation содержит функции валидации входных данных.
package validation

import (
	"net/mail"
	"strings"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// IsValidWalletAddress проверяет, что адрес похож на base58-ключ Solana (32–44 символа).
func IsValidWalletAddress(address string) bool {
	if len(address) < 32 || len(address) > 44 {
		return false
	}

	for i := 0; i < len(address); i++ {
		if strings.IndexByte(base58Alphabet, address[i]) < 0 {
			return false
		}
	}

	return true
}

// IsValidEmail проверяет, что строка является одиночным адресом электронной почты без имени.
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == email
}
