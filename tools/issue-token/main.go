// Command issue-token mints an HS256 bearer token for local testing against
// the gateway or booking-service.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/auth"
)

func main() {
	var (
		subject = flag.String("sub", getenv("TOKEN_SUBJECT", ""), "user id placed in the sub claim")
		role    = flag.String("role", getenv("TOKEN_ROLE", "client"), "client or provider")
		ttl     = flag.Duration("ttl", time.Hour, "token lifetime")
		secret  = flag.String("secret", getenv("JWT_SECRET", ""), "HS256 signing secret")
	)
	flag.Parse()

	token, err := issue(*subject, *role, *secret, *ttl, time.Now())
	if err != nil {
		fatal(err.Error())
	}
	fmt.Println(token)
}

func issue(subject, role, secret string, ttl time.Duration, now time.Time) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", fmt.Errorf("TOKEN_SUBJECT (-sub) is required")
	}
	switch role {
	case "client", "provider":
	default:
		return "", fmt.Errorf("role must be client or provider (got %q)", role)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}
	return auth.SignHS256(auth.NewClaims(subject, role, now, ttl), secret)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
