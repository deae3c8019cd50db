package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"notesapp/internal/auth"
)

func main() {
	secret := flag.String("secret", os.Getenv("AUTH_JWT_SECRET"), "HMAC secret shared with the server")
	user := flag.String("user", "", "user id placed in the sub claim")
	name := flag.String("name", "", "display name")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *user == "" {
		log.Fatal(errors.New("notes-token: --user is required"))
	}

	token, err := auth.Issue(*secret, auth.User{ID: *user, Name: *name}, *ttl)
	if err != nil {
		log.Fatalf("notes-token: %v", err)
	}
	fmt.Println(token)
}
