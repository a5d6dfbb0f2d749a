// Command devtoken mints an access token for local testing of the API.
//
//	go run ./cmd/devtoken -user 5 -role CUSTOMER
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/iliyamo/hotel-crypto-reservation/internal/utils"
)

func main() {
	_ = godotenv.Load()
	user := flag.Uint64("user", 1, "subject user id")
	role := flag.String("role", "CUSTOMER", "CUSTOMER, OPERATOR or RELAY")
	ttl := flag.Int("ttl", 60, "lifetime in minutes")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("missing required env var: JWT_SECRET")
	}
	tok, err := utils.NewAccessToken(secret, *user, strings.ToUpper(*role), *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tok.Token)
}
