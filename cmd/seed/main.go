package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"docvault/internal/auth"
	"docvault/internal/config"
	"docvault/internal/db"
	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
	"docvault/internal/domain/services"
	driveSvc "docvault/internal/domain/services/drive"
	"docvault/internal/repository/postgres"
	postgresDrive "docvault/internal/repository/postgres/drive"
	serviceAuth "docvault/internal/service/auth"
	serviceDrive "docvault/internal/service/drive"
	"docvault/internal/storage"
)

// seedFile is the YAML fixture layout
type seedFile struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	Name     string        `yaml:"name"`
	LastName string        `yaml:"lastName"`
	Email    string        `yaml:"email"`
	Role     models.Role   `yaml:"role"`
	Projects []seedProject `yaml:"projects"`
}

type seedProject struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

func main() {
	file := flag.String("file", "seed.yaml", "YAML file describing users and projects")
	migrate := flag.Bool("migrate", false, "Run migrations before seeding")
	resetSessions := flag.Bool("reset-sessions", false, "Invalidate existing sessions of seeded users")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.IsProduction() && *resetSessions {
		log.Fatalf("BLOCKED: Cannot run destructive operations (--reset-sessions) in production environment")
	}
	if cfg.DatabaseURL == "" || cfg.SessionSecret == "" {
		log.Fatal("DATABASE_URL and SESSION_SECRET are required")
	}

	fixtures, err := loadSeedFile(*file)
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	if *migrate {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		err = db.RunMigrations(conn, cfg.TablePrefix)
		conn.Close()
		if err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	blobs, err := storage.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}
	signer, err := auth.NewHMACTokenSigner(cfg.SessionSecret, cfg.SessionIssuer, logger)
	if err != nil {
		log.Fatalf("Failed to create session signer: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	folderRepo := postgresDrive.NewFolderRepository(repoConfig)
	fileRepo := postgresDrive.NewFileRepository(repoConfig)
	grantRepo := postgresDrive.NewGrantRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	authenticator := serviceAuth.NewSessionAuthenticator(
		postgres.NewSessionRepository(repoConfig), userRepo, signer,
		serviceAuth.SessionConfig{TTL: cfg.SessionTTL, RenewWindow: cfg.SessionRenewWindow},
		logger,
	)
	authorizer := serviceAuth.NewGrantAuthorizer(folderRepo, fileRepo, grantRepo)
	folderService := serviceDrive.NewFolderService(folderRepo, fileRepo, grantRepo, blobs, txManager, authorizer, logger)

	for _, u := range fixtures.Users {
		user, err := ensureUser(ctx, userRepo, u)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", u.Email, err)
		}

		if *resetSessions {
			if err := authenticator.InvalidateAllSessions(ctx, user.ID); err != nil {
				log.Fatalf("Failed to reset sessions for %s: %v", u.Email, err)
			}
		}

		token, err := seedUserTree(ctx, folderService, authenticator, user, u.Projects)
		if err != nil {
			log.Fatalf("Failed to seed %s: %v", u.Email, err)
		}
		fmt.Printf("%s\t%d\t%s\t%s\n", user.Email, user.ID, user.Role, token)
	}

	log.Printf("Seeding complete (%d users)", len(fixtures.Users))
}

func loadSeedFile(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fixtures seedFile
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, u := range fixtures.Users {
		if strings.TrimSpace(u.Email) == "" {
			return nil, fmt.Errorf("user %d: email is required", i)
		}
		if u.Role == "" {
			fixtures.Users[i].Role = models.RoleUser
		} else if !u.Role.Valid() {
			return nil, fmt.Errorf("user %s: unknown role %q", u.Email, u.Role)
		}
	}
	return &fixtures, nil
}

// ensureUser returns the existing user with the fixture's email or creates one
func ensureUser(ctx context.Context, repo repositories.UserRepository, u seedUser) (*models.User, error) {
	existing, err := repo.GetByEmail(ctx, u.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		Name:     u.Name,
		LastName: u.LastName,
		Email:    u.Email,
		Role:     u.Role,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("Created user %s (ID: %d)", user.Email, user.ID)
	return user, nil
}

// seedUserTree provisions the root and project folders, then opens a session
func seedUserTree(
	ctx context.Context,
	folders driveSvc.FolderService,
	authenticator services.SessionAuthenticator,
	user *models.User,
	projects []seedProject,
) (string, error) {
	if _, err := folders.ProvisionUserRoot(ctx, user.ID); err != nil {
		return "", fmt.Errorf("provision root: %w", err)
	}

	for _, p := range projects {
		folder, err := folders.CreateProjectFolder(ctx, user.ID, p.ID, p.Name)
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			log.Printf("Project folder %q already exists for %s", p.Name, user.Email)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("project %q: %w", p.Name, err)
		}
		log.Printf("Created project folder %q (ID: %d)", folder.Name, folder.ID)
	}

	token, _, err := authenticator.CreateSession(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}
