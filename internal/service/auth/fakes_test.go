package auth

import (
	"context"
	"fmt"
	"time"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/models/drive"
)

type stubUserRepo struct {
	users map[int64]*models.User
}

func (r *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = int64(len(r.users) + 1)
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubSessionRepo struct {
	sessions  map[string]*models.Session
	updateErr error
	updates   int
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: map[string]*models.Session{}}
}

func (r *stubSessionRepo) Create(ctx context.Context, session *models.Session) error {
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *stubSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *stubSessionRepo) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	r.updates++
	if r.updateErr != nil {
		return r.updateErr
	}
	s, ok := r.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.ExpiresAt = expiresAt
	return nil
}

func (r *stubSessionRepo) Delete(ctx context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func (r *stubSessionRepo) DeleteByUser(ctx context.Context, userID int64) error {
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

type stubFolderRepo struct {
	folders map[int64]*drive.Folder
}

func (r *stubFolderRepo) Create(ctx context.Context, folder *drive.Folder) error { return nil }

func (r *stubFolderRepo) GetByID(ctx context.Context, id int64) (*drive.Folder, error) {
	f, ok := r.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
	}
	return f, nil
}

func (r *stubFolderRepo) GetRoot(ctx context.Context, userID int64) (*drive.Folder, error) {
	return nil, domain.ErrNotFound
}

func (r *stubFolderRepo) ListChildren(ctx context.Context, folderID int64) ([]drive.Folder, error) {
	return nil, nil
}

func (r *stubFolderRepo) ListAll(ctx context.Context) ([]drive.Folder, error) { return nil, nil }

func (r *stubFolderRepo) Rename(ctx context.Context, id int64, name string, updatedAt time.Time) error {
	return nil
}

func (r *stubFolderRepo) Delete(ctx context.Context, id int64) error { return nil }

type stubFileRepo struct {
	files map[int64]*drive.File
}

func (r *stubFileRepo) Create(ctx context.Context, file *drive.File) error { return nil }

func (r *stubFileRepo) GetByID(ctx context.Context, id int64) (*drive.File, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, fmt.Errorf("file %d: %w", id, domain.ErrNotFound)
	}
	return f, nil
}

func (r *stubFileRepo) ListByFolder(ctx context.Context, folderID int64) ([]drive.File, error) {
	return nil, nil
}

func (r *stubFileRepo) Rename(ctx context.Context, id int64, name string, updatedAt time.Time) error {
	return nil
}

func (r *stubFileRepo) Delete(ctx context.Context, id int64) error { return nil }

// stubGrantRepo only answers lookups; keys are [userID, resourceID]
type stubGrantRepo struct {
	folderGrants map[[2]int64]bool
	fileGrants   map[[2]int64]bool
	lookupErr    error
}

func (r *stubGrantRepo) GrantFolder(ctx context.Context, userID, folderID int64, root bool) error {
	return nil
}

func (r *stubGrantRepo) GrantFile(ctx context.Context, userID, fileID int64, root bool) error {
	return nil
}

func (r *stubGrantRepo) GetFolderGrant(ctx context.Context, userID, folderID int64) (*drive.FolderGrant, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	root, ok := r.folderGrants[[2]int64{userID, folderID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &drive.FolderGrant{UserID: userID, FolderID: folderID, Root: root}, nil
}

func (r *stubGrantRepo) GetFileGrant(ctx context.Context, userID, fileID int64) (*drive.FileGrant, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	root, ok := r.fileGrants[[2]int64{userID, fileID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &drive.FileGrant{UserID: userID, FileID: fileID, Root: root}, nil
}

func (r *stubGrantRepo) SetFolderGrantRoot(ctx context.Context, userID, folderID int64, root bool) error {
	return nil
}

func (r *stubGrantRepo) SetFileGrantRoot(ctx context.Context, userID, fileID int64, root bool) error {
	return nil
}

func (r *stubGrantRepo) RevokeFolder(ctx context.Context, userID, folderID int64) error { return nil }

func (r *stubGrantRepo) RevokeFile(ctx context.Context, userID, fileID int64) error { return nil }

func (r *stubGrantRepo) ListFolderGrants(ctx context.Context, folderID int64) ([]drive.FolderGrant, error) {
	return nil, nil
}

func (r *stubGrantRepo) DeleteFolderGrants(ctx context.Context, folderID int64) error { return nil }

func (r *stubGrantRepo) DeleteFileGrants(ctx context.Context, fileID int64) error { return nil }

func (r *stubGrantRepo) ListSharedFolders(ctx context.Context, userID int64) ([]drive.Folder, error) {
	return nil, nil
}

func (r *stubGrantRepo) ListSharedFiles(ctx context.Context, userID int64) ([]drive.File, error) {
	return nil, nil
}
