package handler

import (
	"context"
	"errors"
	"io"
	"os"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/models/drive"
	driveSvc "docvault/internal/domain/services/drive"
)

var errNotStubbed = errors.New("not stubbed")

// stubFolderService records the last call and returns canned results
type stubFolderService struct {
	lastUser     *models.User
	lastFolderID int64
	lastCreate   *driveSvc.CreateFolderRequest
	lastRename   *driveSvc.RenameFolderRequest
	err          error
	calls        []string
}

func (s *stubFolderService) record(call string, user *models.User, id int64) {
	s.calls = append(s.calls, call)
	s.lastUser = user
	s.lastFolderID = id
}

func (s *stubFolderService) CreateFolder(ctx context.Context, user *models.User, req *driveSvc.CreateFolderRequest) (*drive.Folder, error) {
	s.record("CreateFolder", user, 0)
	s.lastCreate = req
	if s.err != nil {
		return nil, s.err
	}
	return &drive.Folder{ID: 5, Name: req.Name, OwnerID: user.ID, ParentID: req.ParentFolderID}, nil
}

func (s *stubFolderService) GetContents(ctx context.Context, user *models.User, folderID int64) (*drive.FolderContents, error) {
	s.record("GetContents", user, folderID)
	if s.err != nil {
		return nil, s.err
	}
	return &drive.FolderContents{ID: folderID, Folders: []drive.Folder{}, Files: []drive.File{}}, nil
}

func (s *stubFolderService) GetRoot(ctx context.Context, user *models.User) (*drive.FolderContents, error) {
	s.record("GetRoot", user, 0)
	if s.err != nil {
		return nil, s.err
	}
	return &drive.FolderContents{ID: 1, Folders: []drive.Folder{}, Files: []drive.File{}}, nil
}

func (s *stubFolderService) GetUserRoot(ctx context.Context, user *models.User, userID int64) (*drive.FolderContents, error) {
	s.record("GetUserRoot", user, userID)
	if s.err != nil {
		return nil, s.err
	}
	return &drive.FolderContents{ID: 1, Folders: []drive.Folder{}, Files: []drive.File{}}, nil
}

func (s *stubFolderService) ListAll(ctx context.Context, user *models.User) ([]drive.Folder, error) {
	s.record("ListAll", user, 0)
	if s.err != nil {
		return nil, s.err
	}
	return []drive.Folder{{ID: 1, Name: "root"}}, nil
}

func (s *stubFolderService) RenameFolder(ctx context.Context, user *models.User, folderID int64, req *driveSvc.RenameFolderRequest) (*drive.Folder, error) {
	s.record("RenameFolder", user, folderID)
	s.lastRename = req
	if s.err != nil {
		return nil, s.err
	}
	return &drive.Folder{ID: folderID, Name: req.Name}, nil
}

func (s *stubFolderService) DeleteFolder(ctx context.Context, user *models.User, folderID int64) (*driveSvc.DeleteResult, error) {
	s.record("DeleteFolder", user, folderID)
	if s.err != nil {
		return nil, s.err
	}
	return &driveSvc.DeleteResult{FoldersDeleted: 2, FilesDeleted: 1}, nil
}

func (s *stubFolderService) ProvisionUserRoot(ctx context.Context, userID int64) (*drive.Folder, error) {
	return nil, errNotStubbed
}

func (s *stubFolderService) CreateProjectFolder(ctx context.Context, ownerID, projectID int64, name string) (*drive.Folder, error) {
	return nil, errNotStubbed
}

type stubSharingService struct {
	calls   []string
	lastReq *driveSvc.ShareRequest
	err     error
}

func (s *stubSharingService) share(call string, req *driveSvc.ShareRequest) error {
	s.calls = append(s.calls, call)
	s.lastReq = req
	return s.err
}

func (s *stubSharingService) ShareFolder(ctx context.Context, user *models.User, req *driveSvc.ShareRequest) error {
	return s.share("ShareFolder", req)
}

func (s *stubSharingService) UnshareFolder(ctx context.Context, user *models.User, req *driveSvc.ShareRequest) error {
	return s.share("UnshareFolder", req)
}

func (s *stubSharingService) ShareFile(ctx context.Context, user *models.User, req *driveSvc.ShareRequest) error {
	return s.share("ShareFile", req)
}

func (s *stubSharingService) UnshareFile(ctx context.Context, user *models.User, req *driveSvc.ShareRequest) error {
	return s.share("UnshareFile", req)
}

func (s *stubSharingService) ListSharedWithMe(ctx context.Context, user *models.User) (*drive.SharedWithMe, error) {
	s.calls = append(s.calls, "ListSharedWithMe")
	if s.err != nil {
		return nil, s.err
	}
	return &drive.SharedWithMe{Folders: []drive.Folder{}, Files: []drive.File{}}, nil
}

type stubFileService struct {
	calls      []string
	lastUpload *driveSvc.UploadFileRequest
	uploaded   string
	content    string
	err        error
}

func (s *stubFileService) UploadFile(ctx context.Context, user *models.User, req *driveSvc.UploadFileRequest) (*drive.File, error) {
	s.calls = append(s.calls, "UploadFile")
	s.lastUpload = req
	if s.err != nil {
		return nil, s.err
	}
	data, err := io.ReadAll(req.Content)
	if err != nil {
		return nil, err
	}
	s.uploaded = string(data)
	return &drive.File{ID: 9, Name: req.Name, FolderID: req.FolderID, Size: int64(len(data))}, nil
}

func (s *stubFileService) GetFile(ctx context.Context, user *models.User, fileID int64) (*drive.File, error) {
	s.calls = append(s.calls, "GetFile")
	if s.err != nil {
		return nil, s.err
	}
	return &drive.File{ID: fileID, Name: "a.txt"}, nil
}

func (s *stubFileService) OpenFile(ctx context.Context, user *models.User, fileID int64) (*drive.File, io.ReadCloser, error) {
	s.calls = append(s.calls, "OpenFile")
	if s.err != nil {
		return nil, nil, s.err
	}
	file := &drive.File{ID: fileID, Name: "résumé.txt", ContentType: "text/plain", Size: int64(len(s.content))}
	return file, io.NopCloser(stringsReader(s.content)), nil
}

func (s *stubFileService) RenameFile(ctx context.Context, user *models.User, fileID int64, req *driveSvc.RenameFileRequest) (*drive.File, error) {
	s.calls = append(s.calls, "RenameFile")
	if s.err != nil {
		return nil, s.err
	}
	return &drive.File{ID: fileID, Name: req.Name}, nil
}

func (s *stubFileService) DeleteFile(ctx context.Context, user *models.User, fileID int64) error {
	s.calls = append(s.calls, "DeleteFile")
	return s.err
}

// stubArchiveService writes a fixed payload to dir
type stubArchiveService struct {
	dir      string
	payload  string
	err      error
	released []string
}

func (s *stubArchiveService) ExportFolder(ctx context.Context, user *models.User, folderID int64) (*drive.Archive, error) {
	if s.err != nil {
		return nil, s.err
	}
	f, err := os.CreateTemp(s.dir, "export_*.zip")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.WriteString(s.payload); err != nil {
		return nil, err
	}
	return &drive.Archive{FileName: "Reports.zip", Path: f.Name(), Size: int64(len(s.payload))}, nil
}

func (s *stubArchiveService) Open(archive *drive.Archive) (*os.File, error) {
	f, err := os.Open(archive.Path)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return f, nil
}

func (s *stubArchiveService) Release(archive *drive.Archive) error {
	s.released = append(s.released, archive.Path)
	return os.Remove(archive.Path)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }
