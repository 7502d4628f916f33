package google

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"bettersaved/application/ports"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"
)

const (
	folderMimeType      = "application/vnd.google-apps.folder"
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

	listFields = "files(id, name, webViewLink)"
	fileFields = "id, name, webViewLink, mimeType, trashed"
)

// Workspace implements ports.Workspace on Google Drive v3 and Sheets v4
type Workspace struct {
	drive  *drive.Service
	sheets *sheets.Service
	guard  *Guard
}

var _ ports.Workspace = (*Workspace)(nil)

func newWorkspace(driveSvc *drive.Service, sheetsSvc *sheets.Service, guard *Guard) *Workspace {
	return &Workspace{drive: driveSvc, sheets: sheetsSvc, guard: guard}
}

// FindFolder returns the first non-trashed folder with the given name, or nil
func (w *Workspace) FindFolder(ctx context.Context, name, parentID string) (*ports.Folder, error) {
	f, err := w.findOne(ctx, "drive.find_folder", nameQuery(name, folderMimeType, parentID))
	if err != nil || f == nil {
		return nil, err
	}
	return toFolder(f), nil
}

// GetFolder loads a folder by id; a missing, trashed or non-folder item yields nil
func (w *Workspace) GetFolder(ctx context.Context, id string) (*ports.Folder, error) {
	var f *drive.File
	err := w.guard.Do(ctx, "drive.get_folder", func(ctx context.Context) error {
		var err error
		f, err = w.drive.Files.Get(id).Fields(fileFields).Context(ctx).Do()
		if isNotFound(err) {
			f, err = nil, nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get folder %s: %w", id, err)
	}
	if f == nil || f.Trashed || f.MimeType != folderMimeType {
		return nil, nil
	}
	return toFolder(f), nil
}

// CreateFolder creates a folder under parentID, or under the drive root when it is empty
func (w *Workspace) CreateFolder(ctx context.Context, name, parentID string) (*ports.Folder, error) {
	meta := &drive.File{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	var f *drive.File
	err := w.guard.Do(ctx, "drive.create_folder", func(ctx context.Context) error {
		var err error
		f, err = w.drive.Files.Create(meta).Fields("id, name, webViewLink").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create folder %q: %w", name, err)
	}
	return toFolder(f), nil
}

// UploadFile sends the bytes in one multipart request
func (w *Workspace) UploadFile(ctx context.Context, req ports.UploadRequest) (*ports.UploadedFile, error) {
	meta := &drive.File{Name: req.Name, MimeType: req.MimeType, Parents: []string{req.ParentID}}

	var f *drive.File
	err := w.guard.Do(ctx, "drive.upload", func(ctx context.Context) error {
		var err error
		f, err = w.drive.Files.Create(meta).
			Media(bytes.NewReader(req.Content), googleapi.ContentType(req.MimeType), googleapi.ChunkSize(0)).
			Fields("id, webViewLink").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %q: %w", req.Name, err)
	}

	url := f.WebViewLink
	if url == "" {
		url = fmt.Sprintf("https://drive.google.com/file/d/%s/view", f.Id)
	}
	return &ports.UploadedFile{ID: f.Id, URL: url}, nil
}

// FindSpreadsheet returns the first non-trashed spreadsheet with the given name under parentID
func (w *Workspace) FindSpreadsheet(ctx context.Context, name, parentID string) (*ports.Ledger, error) {
	f, err := w.findOne(ctx, "drive.find_spreadsheet", nameQuery(name, spreadsheetMimeType, parentID))
	if err != nil || f == nil {
		return nil, err
	}
	return &ports.Ledger{ID: f.Id, URL: spreadsheetURL(f.Id, f.WebViewLink)}, nil
}

func (w *Workspace) findOne(ctx context.Context, operation, query string) (*drive.File, error) {
	var list *drive.FileList
	err := w.guard.Do(ctx, operation, func(ctx context.Context) error {
		var err error
		list, err = w.drive.Files.List().
			Q(query).
			Spaces("drive").
			Fields(listFields).
			PageSize(1).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search drive: %w", err)
	}
	if len(list.Files) == 0 {
		return nil, nil
	}
	return list.Files[0], nil
}

// moveInto files an item under parentID and takes it out of the drive root
func (w *Workspace) moveInto(ctx context.Context, fileID, parentID string) error {
	return w.guard.Do(ctx, "drive.move", func(ctx context.Context) error {
		_, err := w.drive.Files.Update(fileID, &drive.File{}).
			AddParents(parentID).
			RemoveParents("root").
			Fields("id, parents").
			Context(ctx).
			Do()
		return err
	})
}

// nameQuery builds a Drive search for a non-trashed item by exact name and type
func nameQuery(name, mimeType, parentID string) string {
	if parentID == "" {
		parentID = "root"
	}
	return fmt.Sprintf("name='%s' and mimeType='%s' and '%s' in parents and trashed=false",
		escapeQuery(name), mimeType, escapeQuery(parentID))
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func toFolder(f *drive.File) *ports.Folder {
	url := f.WebViewLink
	if url == "" {
		url = "https://drive.google.com/drive/folders/" + f.Id
	}
	return &ports.Folder{ID: f.Id, Name: f.Name, URL: url}
}

func spreadsheetURL(id, link string) string {
	if link != "" {
		return link
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit", id)
}
