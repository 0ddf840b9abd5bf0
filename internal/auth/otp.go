package auth

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Iranian mobile numbers: 09xxxxxxxxx, optionally prefixed with +98 / 0098 / 98.
var phonePattern = regexp.MustCompile(`^09\d{9}$`)

// GenerateOTPCode returns a 6-digit numeric code.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return big.NewInt(0).Add(n, big.NewInt(100000)).String(), nil
}

// NormalizePhone rewrites international prefixes to the local 09... form.
func NormalizePhone(phone string) string {
	p := strings.TrimSpace(phone)
	p = strings.ReplaceAll(p, " ", "")
	p = strings.ReplaceAll(p, "-", "")
	switch {
	case strings.HasPrefix(p, "+98"):
		p = "0" + p[3:]
	case strings.HasPrefix(p, "0098"):
		p = "0" + p[4:]
	case strings.HasPrefix(p, "98") && len(p) == 12:
		p = "0" + p[2:]
	}
	return p
}

// ValidatePhone reports whether phone normalizes to a valid Iranian mobile number.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

// HashOTPCode hashes a code before it is stored; codes never sit in Redis in
// the clear.
func HashOTPCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckOTPCode compares a submitted code against its stored hash.
func CheckOTPCode(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
