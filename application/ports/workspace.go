package ports

import "context"

// Folder is a remote storage folder
type Folder struct {
	ID   string
	Name string
	URL  string
}

// Ledger is a remote spreadsheet used as the append-only log
type Ledger struct {
	ID  string
	URL string
}

// UploadedFile is the result of a byte upload
type UploadedFile struct {
	ID  string
	URL string
}

// UploadRequest describes one file upload
type UploadRequest struct {
	Name     string
	MimeType string
	ParentID string
	Content  []byte
}

// LedgerSpec describes a ledger to create
type LedgerSpec struct {
	Title     string
	SheetName string
	Header    []string
	ParentID  string
}

// Workspace is an authenticated session against the remote storage and ledger provider.
// Find and Get methods return (nil, nil) when nothing matches.
type Workspace interface {
	// FindFolder looks up a non-trashed folder by name; an empty parentID means the drive root
	FindFolder(ctx context.Context, name, parentID string) (*Folder, error)

	// GetFolder loads a folder by id
	GetFolder(ctx context.Context, id string) (*Folder, error)

	// CreateFolder creates a folder; an empty parentID means the drive root
	CreateFolder(ctx context.Context, name, parentID string) (*Folder, error)

	// UploadFile uploads bytes in a single request
	UploadFile(ctx context.Context, req UploadRequest) (*UploadedFile, error)

	// FindSpreadsheet looks up a non-trashed spreadsheet by name under a parent
	FindSpreadsheet(ctx context.Context, name, parentID string) (*Ledger, error)

	// CreateLedger creates a spreadsheet, writes and formats its header and files it under the parent
	CreateLedger(ctx context.Context, spec LedgerSpec) (*Ledger, error)

	// AppendRow appends one row and returns the updated range
	AppendRow(ctx context.Context, ledgerID, sheetName string, values []interface{}) (string, error)
}

// WorkspaceFactory opens workspaces from stored credentials
type WorkspaceFactory interface {
	Open(ctx context.Context, credential string) (Workspace, error)
}
