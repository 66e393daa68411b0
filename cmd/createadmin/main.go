// Package main bootstraps a platform admin credential in the master database.
// Idempotent: an existing email is left untouched.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orgvault/backend/config"
	"github.com/orgvault/backend/internal/directory"
	"github.com/orgvault/backend/internal/models"
	"github.com/orgvault/backend/pkg/database"
	"github.com/orgvault/backend/pkg/utils"
)

// systemOrgID marks bootstrap admins that do not belong to a provisioned
// organization.
const systemOrgID = "system_admin_org"

func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "error: --email and --password are required")
		os.Exit(1)
	}

	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	client, err := database.NewMongoClient(ctx, cfg.Mongo.URI, logger)
	if err != nil {
		logger.Fatal("mongo", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	repo := directory.NewRepository(client, cfg.Mongo.MasterDB)

	existing, err := repo.AdminByEmail(ctx, *email)
	if err != nil {
		logger.Fatal("admin lookup", zap.Error(err))
	}
	if existing != nil {
		logger.Info("admin already exists, skipping", zap.String("email", *email))
		return
	}

	hash, err := utils.HashPassword(*password)
	if err != nil {
		logger.Fatal("hash password", zap.Error(err))
	}
	admin := &models.Admin{
		Email:          *email,
		PasswordHash:   hash,
		OrganizationID: systemOrgID,
	}
	if err := repo.InsertAdmin(ctx, admin); err != nil {
		logger.Fatal("insert admin", zap.Error(err))
	}
	logger.Info("admin created", zap.String("email", *email), zap.String("id", admin.ID.Hex()))
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
