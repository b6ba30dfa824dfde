// Command tokengen mints a bearer token for the ledger API using the
// configured JWT secret, issuer and expiry.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"banking-ledger/config"
	"banking-ledger/internal/service"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	subject := pflag.StringP("subject", "s", "", "token subject, e.g. the calling back-office system")
	configPath := pflag.StringP("config", "c", "", "path to a config file (default: ./config.yaml)")
	expiry := pflag.Duration("expiry", 0, "override jwt.expiry")
	pflag.Parse()

	if err := run(*subject, *configPath, *expiry); err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}
}

func run(subject, configPath string, expiry time.Duration) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading .env: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is not set")
	}
	if expiry <= 0 {
		expiry = cfg.JWT.Expiry
	}

	token, expiresAt, err := service.NewJWTTokenService(cfg.JWT.Secret, expiry, cfg.JWT.Issuer).Generate(subject)
	if err != nil {
		return err
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "subject=%s expires=%s\n", subject, expiresAt.UTC().Format(time.RFC3339))
	return nil
}
