//go:build container

package drive_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"docvault/internal/auth"
	"docvault/internal/db"
	"docvault/internal/domain"
	"docvault/internal/domain/models"
	driveModels "docvault/internal/domain/models/drive"
	"docvault/internal/domain/repositories"
	driveSvc "docvault/internal/domain/services/drive"
	"docvault/internal/repository/postgres"
	postgresDrive "docvault/internal/repository/postgres/drive"
	serviceAuth "docvault/internal/service/auth"
	serviceDrive "docvault/internal/service/drive"
	"docvault/internal/storage"
)

const tablePrefix = "test_"

type stack struct {
	users    repositories.UserRepository
	sessions repositories.SessionRepository
	tx       repositories.TransactionManager
	folders  driveSvc.FolderService
	sharing  driveSvc.SharingService
	files    driveSvc.FileService
	archive  driveSvc.ArchiveService
	authn    *serviceAuth.GrantAuthorizer
	repos    struct {
		folders *postgresDrive.PostgresFolderRepository
		grants  *postgresDrive.PostgresGrantRepository
	}
}

// startPostgres runs a throwaway postgres and returns its connection URL
func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "docvault",
			"POSTGRES_PASSWORD": "docvault",
			"POSTGRES_DB":       "docvault",
		},
		// the server restarts once after init
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}
	return fmt.Sprintf("postgres://docvault:docvault@%s:%s/docvault?sslmode=disable", host, port.Port())
}

func newStack(t *testing.T) (*stack, context.Context) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	url := startPostgres(t, ctx)

	sqlDB, err := db.Open(url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sqlDB.Close()
	if err := db.RunMigrations(sqlDB, tablePrefix); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := postgres.CreateConnectionPool(ctx, url)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	blobs, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	cfg := &postgres.RepositoryConfig{Pool: pool, Tables: postgres.NewTableNames(tablePrefix), Logger: logger}
	folderRepo := postgresDrive.NewFolderRepository(cfg)
	fileRepo := postgresDrive.NewFileRepository(cfg)
	grantRepo := postgresDrive.NewGrantRepository(cfg)

	s := &stack{
		users:    postgres.NewUserRepository(cfg),
		sessions: postgres.NewSessionRepository(cfg),
		tx:       postgres.NewTransactionManager(pool, logger),
	}
	s.repos.folders = folderRepo.(*postgresDrive.PostgresFolderRepository)
	s.repos.grants = grantRepo.(*postgresDrive.PostgresGrantRepository)
	s.authn = serviceAuth.NewGrantAuthorizer(folderRepo, fileRepo, grantRepo)
	s.folders = serviceDrive.NewFolderService(folderRepo, fileRepo, grantRepo, blobs, s.tx, s.authn, logger)
	s.sharing = serviceDrive.NewSharingService(folderRepo, fileRepo, grantRepo, s.users, s.tx, s.authn, logger)
	s.files = serviceDrive.NewFileService(folderRepo, fileRepo, grantRepo, blobs, s.tx, s.authn, logger)
	s.archive = serviceDrive.NewArchiveService(folderRepo, fileRepo, blobs, s.authn, serviceDrive.ArchiveConfig{
		Dir: t.TempDir(),
		TTL: time.Minute,
	}, logger)
	return s, ctx
}

func (s *stack) user(t *testing.T, ctx context.Context, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Role: role, Status: "Activo"}
	if err := s.users.Create(ctx, u); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func (s *stack) root(t *testing.T, ctx context.Context, u *models.User) *driveModels.Folder {
	t.Helper()
	root, err := s.folders.ProvisionUserRoot(ctx, u.ID)
	if err != nil {
		t.Fatalf("provision root: %v", err)
	}
	return root
}

func (s *stack) mkdir(t *testing.T, ctx context.Context, u *models.User, parent *driveModels.Folder, name string) *driveModels.Folder {
	t.Helper()
	f, err := s.folders.CreateFolder(ctx, u, &driveSvc.CreateFolderRequest{ParentFolderID: &parent.ID, Name: name})
	if err != nil {
		t.Fatalf("create folder %s: %v", name, err)
	}
	return f
}

func TestPostgres(t *testing.T) {
	s, ctx := newStack(t)

	t.Run("users", func(t *testing.T) {
		s.user(t, ctx, "dup@example.com", models.RoleUser)
		err := s.users.Create(ctx, &models.User{Name: "x", Email: "DUP@example.com", Role: models.RoleUser})
		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) {
			t.Errorf("expected a conflict on case-insensitive email, got %v", err)
		}

		got, err := s.users.GetByEmail(ctx, "dup@example.com")
		if err != nil || got.Role != models.RoleUser {
			t.Errorf("get by email: %+v %v", got, err)
		}
	})

	t.Run("one root per user", func(t *testing.T) {
		u := s.user(t, ctx, "root@example.com", models.RoleUser)
		first := s.root(t, ctx, u)
		second, err := s.folders.ProvisionUserRoot(ctx, u.ID)
		if err != nil || second.ID != first.ID {
			t.Errorf("provisioning twice should return the existing root: %+v %v", second, err)
		}

		err = s.repos.folders.Create(ctx, &driveModels.Folder{Name: driveModels.RootFolderName, OwnerID: u.ID})
		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) {
			t.Errorf("expected the unique root index to fire, got %v", err)
		}
	})

	t.Run("folder with children cannot be deleted directly", func(t *testing.T) {
		u := s.user(t, ctx, "fk@example.com", models.RoleUser)
		root := s.root(t, ctx, u)
		parent := s.mkdir(t, ctx, u, root, "Parent")
		s.mkdir(t, ctx, u, parent, "Child")

		err := s.repos.folders.Delete(ctx, parent.ID)
		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("expected ErrConflict from the foreign key, got %v", err)
		}
	})

	t.Run("grant upsert rules", func(t *testing.T) {
		owner := s.user(t, ctx, "grant-owner@example.com", models.RoleUser)
		other := s.user(t, ctx, "grant-other@example.com", models.RoleUser)
		folder := s.mkdir(t, ctx, owner, s.root(t, ctx, owner), "Shared")

		steps := []struct {
			root bool
			want bool
		}{
			{root: false, want: false},
			{root: true, want: true},
			{root: false, want: true},
		}
		for i, step := range steps {
			if err := s.repos.grants.GrantFolder(ctx, other.ID, folder.ID, step.root); err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
			grant, err := s.repos.grants.GetFolderGrant(ctx, other.ID, folder.ID)
			if err != nil || grant.Root != step.want {
				t.Errorf("step %d: expected root=%v, got %+v %v", i, step.want, grant, err)
			}
		}

		err := s.repos.grants.GrantFolder(ctx, other.ID, 999999, true)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("granting a missing folder should be ErrNotFound, got %v", err)
		}
	})

	t.Run("transaction rollback", func(t *testing.T) {
		u := s.user(t, ctx, "tx@example.com", models.RoleUser)
		root := s.root(t, ctx, u)

		boom := errors.New("boom")
		var created int64
		err := s.tx.ExecTx(ctx, func(ctx context.Context) error {
			f := &driveModels.Folder{Name: "Doomed", OwnerID: u.ID, ParentID: &root.ID}
			if err := s.repos.folders.Create(ctx, f); err != nil {
				return err
			}
			created = f.ID
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if _, err := s.repos.folders.GetByID(ctx, created); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("rolled back folder should not exist, got %v", err)
		}
	})

	t.Run("share, upload, unshare and delete", func(t *testing.T) {
		owner := s.user(t, ctx, "a@example.com", models.RoleUser)
		bob := s.user(t, ctx, "b@example.com", models.RoleUser)
		root := s.root(t, ctx, owner)
		a := s.mkdir(t, ctx, owner, root, "A")
		b := s.mkdir(t, ctx, owner, a, "B")

		if err := s.sharing.ShareFolder(ctx, owner, &driveSvc.ShareRequest{ResourceID: a.ID, UserID: bob.ID}); err != nil {
			t.Fatalf("share: %v", err)
		}
		file, err := s.files.UploadFile(ctx, owner, &driveSvc.UploadFileRequest{
			FolderID: b.ID,
			Name:     "notes.txt",
			Content:  strings.NewReader("hello"),
		})
		if err != nil {
			t.Fatalf("upload: %v", err)
		}

		if err := s.authn.CanAccessFile(ctx, bob, file.ID); err != nil {
			t.Errorf("grantee should inherit the new file: %v", err)
		}
		shared, err := s.sharing.ListSharedWithMe(ctx, bob)
		if err != nil || len(shared.Folders) != 1 || shared.Folders[0].ID != a.ID {
			t.Errorf("expected A in shared-with-me, got %+v %v", shared, err)
		}

		archive, err := s.archive.ExportFolder(ctx, bob, a.ID)
		if err != nil {
			t.Fatalf("export: %v", err)
		}
		s.archive.Release(archive)

		if err := s.sharing.UnshareFolder(ctx, owner, &driveSvc.ShareRequest{ResourceID: a.ID, UserID: bob.ID}); err != nil {
			t.Fatalf("unshare: %v", err)
		}
		if err := s.authn.CanAccessFolder(ctx, bob, b.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("unshare should revoke the subtree, got %v", err)
		}

		result, err := s.folders.DeleteFolder(ctx, owner, a.ID)
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		if result.FoldersDeleted != 2 || result.FilesDeleted != 1 {
			t.Errorf("unexpected delete result %+v", result)
		}
		if _, err := s.repos.folders.GetByID(ctx, b.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("subtree should be gone, got %v", err)
		}
	})

	t.Run("sessions", func(t *testing.T) {
		u := s.user(t, ctx, "session@example.com", models.RoleAdmin)
		signer, err := auth.NewHMACTokenSigner("integration-secret", "docvault", slog.New(slog.DiscardHandler))
		if err != nil {
			t.Fatalf("signer: %v", err)
		}
		authn := serviceAuth.NewSessionAuthenticator(s.sessions, s.users, signer, serviceAuth.SessionConfig{
			TTL:         time.Hour,
			RenewWindow: time.Minute,
		}, slog.New(slog.DiscardHandler))

		token, _, err := authn.CreateSession(ctx, u.ID)
		if err != nil {
			t.Fatalf("create session: %v", err)
		}
		got, err := authn.ValidateSessionToken(ctx, token)
		if err != nil || got.ID != u.ID {
			t.Fatalf("validate: %+v %v", got, err)
		}
		if !authn.IsAdmin(ctx, token) {
			t.Error("expected admin session")
		}
		if err := authn.InvalidateAllSessions(ctx, u.ID); err != nil {
			t.Fatalf("invalidate: %v", err)
		}
		if _, err := authn.ValidateSessionToken(ctx, token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized after invalidation, got %v", err)
		}
	})
}
