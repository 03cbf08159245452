package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	driveModels "docvault/internal/domain/models/drive"
	"docvault/internal/domain/repositories"
	driveSvc "docvault/internal/domain/services/drive"
	serviceAuth "docvault/internal/service/auth"
)

// ============================================================================
// In-memory store shared by the fake repositories
// ============================================================================

var errFake = errors.New("injected failure")

type grantKey struct {
	userID     int64
	resourceID int64
}

type memDB struct {
	mu           sync.Mutex
	nextID       int64
	users        map[int64]*models.User
	folders      map[int64]driveModels.Folder
	files        map[int64]driveModels.File
	folderGrants map[grantKey]bool // value is the root flag
	fileGrants   map[grantKey]bool

	// failures keyed by "<repo>.<method>", returned on the next matching call
	failures map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		users:        map[int64]*models.User{},
		folders:      map[int64]driveModels.Folder{},
		files:        map[int64]driveModels.File{},
		folderGrants: map[grantKey]bool{},
		fileGrants:   map[grantKey]bool{},
		failures:     map[string]error{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) fail(op string) error {
	err := db.failures[op]
	delete(db.failures, op)
	return err
}

type memSnapshot struct {
	nextID       int64
	folders      map[int64]driveModels.Folder
	files        map[int64]driveModels.File
	folderGrants map[grantKey]bool
	fileGrants   map[grantKey]bool
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return memSnapshot{
		nextID:       db.nextID,
		folders:      maps.Clone(db.folders),
		files:        maps.Clone(db.files),
		folderGrants: maps.Clone(db.folderGrants),
		fileGrants:   maps.Clone(db.fileGrants),
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextID = s.nextID
	db.folders = s.folders
	db.files = s.files
	db.folderGrants = s.folderGrants
	db.fileGrants = s.fileGrants
}

// fakeTxManager rolls the store back when fn fails
type fakeTxManager struct {
	db    *memDB
	calls int
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	m.calls++
	snap := m.db.snapshot()
	if err := fn(ctx); err != nil {
		m.db.restore(snap)
		return err
	}
	return nil
}

// ============================================================================
// Repositories
// ============================================================================

type fakeFolderRepo struct{ db *memDB }

func (r *fakeFolderRepo) Create(ctx context.Context, folder *driveModels.Folder) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("folder.Create"); err != nil {
		return err
	}
	if folder.ParentID == nil {
		for _, f := range r.db.folders {
			if f.ParentID == nil && f.OwnerID == folder.OwnerID {
				return &domain.ConflictError{Message: "root exists", ResourceType: "folder", ResourceID: strconv.FormatInt(f.ID, 10)}
			}
		}
	} else if _, ok := r.db.folders[*folder.ParentID]; !ok {
		return fmt.Errorf("parent folder: %w", domain.ErrNotFound)
	}
	folder.ID = r.db.id()
	r.db.folders[folder.ID] = *folder
	return nil
}

func (r *fakeFolderRepo) GetByID(ctx context.Context, id int64) (*driveModels.Folder, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f, ok := r.db.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
	}
	return &f, nil
}

func (r *fakeFolderRepo) GetRoot(ctx context.Context, userID int64) (*driveModels.Folder, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, f := range r.db.folders {
		if f.ParentID == nil && f.OwnerID == userID {
			return &f, nil
		}
	}
	return nil, fmt.Errorf("root folder for user %d: %w", userID, domain.ErrNotFound)
}

func (r *fakeFolderRepo) ListChildren(ctx context.Context, folderID int64) ([]driveModels.Folder, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("folder.ListChildren"); err != nil {
		return nil, err
	}
	children := []driveModels.Folder{}
	for _, f := range r.db.folders {
		if f.ParentID != nil && *f.ParentID == folderID {
			children = append(children, f)
		}
	}
	slices.SortFunc(children, func(a, b driveModels.Folder) int { return int(a.ID - b.ID) })
	return children, nil
}

func (r *fakeFolderRepo) ListAll(ctx context.Context) ([]driveModels.Folder, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	all := slices.Collect(maps.Values(r.db.folders))
	slices.SortFunc(all, func(a, b driveModels.Folder) int { return int(a.ID - b.ID) })
	return all, nil
}

func (r *fakeFolderRepo) Rename(ctx context.Context, id int64, name string, updatedAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f, ok := r.db.folders[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.Name = name
	f.UpdatedAt = updatedAt
	r.db.folders[id] = f
	return nil
}

func (r *fakeFolderRepo) Delete(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.folders[id]; !ok {
		return domain.ErrNotFound
	}
	for _, f := range r.db.folders {
		if f.ParentID != nil && *f.ParentID == id {
			return fmt.Errorf("folder %d still has child %d", id, f.ID)
		}
	}
	for _, f := range r.db.files {
		if f.FolderID == id {
			return fmt.Errorf("folder %d still has file %d", id, f.ID)
		}
	}
	delete(r.db.folders, id)
	return nil
}

type fakeFileRepo struct{ db *memDB }

func (r *fakeFileRepo) Create(ctx context.Context, file *driveModels.File) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("file.Create"); err != nil {
		return err
	}
	file.ID = r.db.id()
	r.db.files[file.ID] = *file
	return nil
}

func (r *fakeFileRepo) GetByID(ctx context.Context, id int64) (*driveModels.File, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f, ok := r.db.files[id]
	if !ok {
		return nil, fmt.Errorf("file %d: %w", id, domain.ErrNotFound)
	}
	return &f, nil
}

func (r *fakeFileRepo) ListByFolder(ctx context.Context, folderID int64) ([]driveModels.File, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	files := []driveModels.File{}
	for _, f := range r.db.files {
		if f.FolderID == folderID {
			files = append(files, f)
		}
	}
	slices.SortFunc(files, func(a, b driveModels.File) int { return int(a.ID - b.ID) })
	return files, nil
}

func (r *fakeFileRepo) Rename(ctx context.Context, id int64, name string, updatedAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f, ok := r.db.files[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.Name = name
	f.UpdatedAt = updatedAt
	r.db.files[id] = f
	return nil
}

func (r *fakeFileRepo) Delete(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("file.Delete"); err != nil {
		return err
	}
	if _, ok := r.db.files[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.db.files, id)
	return nil
}

type fakeGrantRepo struct{ db *memDB }

func upsertGrant(grants map[grantKey]bool, key grantKey, root bool) {
	if root {
		grants[key] = true
		return
	}
	if _, ok := grants[key]; !ok {
		grants[key] = false
	}
}

func (r *fakeGrantRepo) GrantFolder(ctx context.Context, userID, folderID int64, root bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("grant.GrantFolder"); err != nil {
		return err
	}
	upsertGrant(r.db.folderGrants, grantKey{userID, folderID}, root)
	return nil
}

func (r *fakeGrantRepo) GrantFile(ctx context.Context, userID, fileID int64, root bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	upsertGrant(r.db.fileGrants, grantKey{userID, fileID}, root)
	return nil
}

func (r *fakeGrantRepo) GetFolderGrant(ctx context.Context, userID, folderID int64) (*driveModels.FolderGrant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	root, ok := r.db.folderGrants[grantKey{userID, folderID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &driveModels.FolderGrant{UserID: userID, FolderID: folderID, Root: root}, nil
}

func (r *fakeGrantRepo) GetFileGrant(ctx context.Context, userID, fileID int64) (*driveModels.FileGrant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	root, ok := r.db.fileGrants[grantKey{userID, fileID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &driveModels.FileGrant{UserID: userID, FileID: fileID, Root: root}, nil
}

func (r *fakeGrantRepo) SetFolderGrantRoot(ctx context.Context, userID, folderID int64, root bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := grantKey{userID, folderID}
	if _, ok := r.db.folderGrants[key]; !ok {
		return domain.ErrNotFound
	}
	r.db.folderGrants[key] = root
	return nil
}

func (r *fakeGrantRepo) SetFileGrantRoot(ctx context.Context, userID, fileID int64, root bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := grantKey{userID, fileID}
	if _, ok := r.db.fileGrants[key]; !ok {
		return domain.ErrNotFound
	}
	r.db.fileGrants[key] = root
	return nil
}

func (r *fakeGrantRepo) RevokeFolder(ctx context.Context, userID, folderID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.folderGrants, grantKey{userID, folderID})
	return nil
}

func (r *fakeGrantRepo) RevokeFile(ctx context.Context, userID, fileID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.fileGrants, grantKey{userID, fileID})
	return nil
}

func (r *fakeGrantRepo) ListFolderGrants(ctx context.Context, folderID int64) ([]driveModels.FolderGrant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	grants := []driveModels.FolderGrant{}
	for key, root := range r.db.folderGrants {
		if key.resourceID == folderID {
			grants = append(grants, driveModels.FolderGrant{UserID: key.userID, FolderID: folderID, Root: root})
		}
	}
	slices.SortFunc(grants, func(a, b driveModels.FolderGrant) int { return int(a.UserID - b.UserID) })
	return grants, nil
}

func (r *fakeGrantRepo) DeleteFolderGrants(ctx context.Context, folderID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	maps.DeleteFunc(r.db.folderGrants, func(k grantKey, _ bool) bool { return k.resourceID == folderID })
	return nil
}

func (r *fakeGrantRepo) DeleteFileGrants(ctx context.Context, fileID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	maps.DeleteFunc(r.db.fileGrants, func(k grantKey, _ bool) bool { return k.resourceID == fileID })
	return nil
}

func (r *fakeGrantRepo) ListSharedFolders(ctx context.Context, userID int64) ([]driveModels.Folder, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	folders := []driveModels.Folder{}
	for key, root := range r.db.folderGrants {
		if key.userID == userID && root {
			folders = append(folders, r.db.folders[key.resourceID])
		}
	}
	slices.SortFunc(folders, func(a, b driveModels.Folder) int { return int(a.ID - b.ID) })
	return folders, nil
}

func (r *fakeGrantRepo) ListSharedFiles(ctx context.Context, userID int64) ([]driveModels.File, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	files := []driveModels.File{}
	for key, root := range r.db.fileGrants {
		if key.userID == userID && root {
			files = append(files, r.db.files[key.resourceID])
		}
	}
	slices.SortFunc(files, func(a, b driveModels.File) int { return int(a.ID - b.ID) })
	return files, nil
}

type fakeUserRepo struct{ db *memDB }

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user.ID = r.db.id()
	r.db.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ============================================================================
// Blob store
// ============================================================================

type memBlobs struct {
	mu         sync.Mutex
	data       map[string][]byte
	failPut    error
	failDelete map[string]error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: map[string][]byte{}, failDelete: map[string]error{}}
}

func (b *memBlobs) Put(ctx context.Context, key string, content io.Reader) error {
	if b.failPut != nil {
		return b.failPut
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = data
	return nil
}

func (b *memBlobs) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.data[key]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", key, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBlobs) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failDelete[key]; err != nil {
		return err
	}
	delete(b.data, key)
	return nil
}

func (b *memBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.data[key]
	return ok
}

// ============================================================================
// Test environment
// ============================================================================

type testEnv struct {
	t       *testing.T
	ctx     context.Context
	db      *memDB
	blobs   *memBlobs
	tx      *fakeTxManager
	folders driveSvc.FolderService
	sharing driveSvc.SharingService
	files   driveSvc.FileService
	archive driveSvc.ArchiveService
	dir     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newMemDB()
	blobs := newMemBlobs()
	tx := &fakeTxManager{db: db}
	logger := slog.New(slog.DiscardHandler)

	folderRepo := &fakeFolderRepo{db: db}
	fileRepo := &fakeFileRepo{db: db}
	grantRepo := &fakeGrantRepo{db: db}
	userRepo := &fakeUserRepo{db: db}
	authorizer := serviceAuth.NewGrantAuthorizer(folderRepo, fileRepo, grantRepo)
	dir := t.TempDir()

	return &testEnv{
		t:       t,
		ctx:     context.Background(),
		db:      db,
		blobs:   blobs,
		tx:      tx,
		folders: NewFolderService(folderRepo, fileRepo, grantRepo, blobs, tx, authorizer, logger),
		sharing: NewSharingService(folderRepo, fileRepo, grantRepo, userRepo, tx, authorizer, logger),
		files:   NewFileService(folderRepo, fileRepo, grantRepo, blobs, tx, authorizer, logger),
		archive: NewArchiveService(folderRepo, fileRepo, blobs, authorizer, ArchiveConfig{Dir: dir, TTL: time.Minute}, logger),
		dir:     dir,
	}
}

func (e *testEnv) user(role models.Role) *models.User {
	e.t.Helper()
	u := &models.User{Name: "user", Role: role}
	if err := (&fakeUserRepo{db: e.db}).Create(e.ctx, u); err != nil {
		e.t.Fatalf("create user: %v", err)
	}
	u.Email = fmt.Sprintf("user%d@example.com", u.ID)
	return u
}

func (e *testEnv) root(owner *models.User) *driveModels.Folder {
	e.t.Helper()
	root, err := e.folders.ProvisionUserRoot(e.ctx, owner.ID)
	if err != nil {
		e.t.Fatalf("provision root: %v", err)
	}
	return root
}

func (e *testEnv) folder(owner *models.User, parent *driveModels.Folder, name string) *driveModels.Folder {
	e.t.Helper()
	f, err := e.folders.CreateFolder(e.ctx, owner, &driveSvc.CreateFolderRequest{ParentFolderID: &parent.ID, Name: name})
	if err != nil {
		e.t.Fatalf("create folder %q: %v", name, err)
	}
	return f
}

func (e *testEnv) file(owner *models.User, folder *driveModels.Folder, name, content string) *driveModels.File {
	e.t.Helper()
	f, err := e.files.UploadFile(e.ctx, owner, &driveSvc.UploadFileRequest{
		FolderID:    folder.ID,
		Name:        name,
		ContentType: "text/plain",
		Content:     bytes.NewBufferString(content),
	})
	if err != nil {
		e.t.Fatalf("upload %q: %v", name, err)
	}
	return f
}

// folderGrant returns the grant's root flag and whether it exists
func (e *testEnv) folderGrant(userID, folderID int64) (root, ok bool) {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	root, ok = e.db.folderGrants[grantKey{userID, folderID}]
	return root, ok
}

func (e *testEnv) fileGrant(userID, fileID int64) (root, ok bool) {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	root, ok = e.db.fileGrants[grantKey{userID, fileID}]
	return root, ok
}

func (e *testEnv) grantCount() int {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	return len(e.db.folderGrants) + len(e.db.fileGrants)
}

func assertErrorIs(t *testing.T, err, want error) {
	t.Helper()
	if want == nil {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected error %v, got %v", want, err)
	}
}
