// Command devtoken prints a bearer token for local testing.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/spec-kit/transfer-service/internal/auth"
	"github.com/spec-kit/transfer-service/internal/config"
	"github.com/spec-kit/transfer-service/internal/domain"
)

func main() {
	var (
		userID     = flag.String("user", "", "user id (sub claim)")
		name       = flag.String("name", "", "display name")
		tenantID   = flag.String("tenant", "", "tenant the caller acts for")
		department = flag.String("department", "", "requester department")
		system     = flag.Bool("system", false, "issue a SYSTEM caller token")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	caller := domain.Caller{
		UserID:     strings.TrimSpace(*userID),
		UserName:   *name,
		TenantID:   strings.TrimSpace(*tenantID),
		Department: *department,
		Role:       domain.CallerRoleOperator,
	}
	if *system {
		caller.Role = domain.CallerRoleSystem
	}
	if caller.UserID == "" {
		log.Fatalf("-user is required")
	}
	if !caller.IsSystem() && caller.TenantID == "" {
		log.Fatalf("-tenant is required for operator tokens")
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	token, expiresAt, err := tokens.GenerateToken(caller)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
	log.Printf("expires at %s", expiresAt.Format("2006-01-02T15:04:05Z07:00"))
}
