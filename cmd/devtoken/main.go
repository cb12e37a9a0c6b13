// Command devtoken generates JWT signing keys and issues tokens for local development.
//
//	devtoken -genkey            print a new ES256 key for JWT_SECRET
//	devtoken -user <uuid>       issue a token signed with the configured JWT_SECRET
package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"strings"

	"decision-hub/internal/auth"
	"decision-hub/internal/config"

	"github.com/google/uuid"
)

func main() {
	genKey := flag.Bool("genkey", false, "generate an ECDSA P-256 key for JWT_SECRET")
	keyFile := flag.String("out", "", "also write the generated key to this file")
	user := flag.String("user", "", "user ID to issue a token for")
	email := flag.String("email", "", "optional email claim")
	flag.Parse()

	switch {
	case *genKey:
		if err := generateKey(*keyFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
			os.Exit(1)
		}
	case *user != "":
		if err := issueToken(*user, *email); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func generateKey(keyFile string) error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}

	privateKeyBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: privateKeyBytes,
	})

	fmt.Println("Add this to your .env file (the quotes keep the newlines):")
	fmt.Printf("JWT_SECRET=\"%s\"\n", strings.ReplaceAll(strings.TrimSpace(string(privateKeyPEM)), "\n", `\n`))

	if keyFile != "" {
		if err := os.WriteFile(keyFile, privateKeyPEM, 0600); err != nil {
			return fmt.Errorf("failed to write private key file: %w", err)
		}
		fmt.Printf("Private key saved to: %s\n", keyFile)
	}
	return nil
}

func issueToken(user, email string) error {
	userID, err := uuid.Parse(user)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	token, err := auth.NewService(&cfg.JWT).GenerateToken(userID, email)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
