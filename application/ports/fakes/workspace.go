// Package fakes provides stateful in-memory port implementations for scenario tests.
package fakes

import (
	"context"
	"fmt"
	"sync"

	"bettersaved/application/ports"
)

const rootID = "root"

type node struct {
	id     string
	name   string
	parent string
	mime   string
	data   []byte
	rows   [][]interface{}
}

// Workspace is an in-memory drive with spreadsheets
type Workspace struct {
	mu      sync.Mutex
	seq     int
	folders map[string]*node
	files   map[string]*node
	sheets  map[string]*node

	// Injected failures
	UploadErr error
	AppendErr error
	CreateErr error
	FindErr   error

	// Call counters
	FolderCreates int
	LedgerCreates int
	Uploads       int
	Appends       int
}

// NewWorkspace creates an empty workspace
func NewWorkspace() *Workspace {
	return &Workspace{
		folders: make(map[string]*node),
		files:   make(map[string]*node),
		sheets:  make(map[string]*node),
	}
}

func (w *Workspace) nextID(prefix string) string {
	w.seq++
	return fmt.Sprintf("%s-%d", prefix, w.seq)
}

func parentOrRoot(parentID string) string {
	if parentID == "" {
		return rootID
	}
	return parentID
}

// SeedFolder creates a folder without counting it as a create call
func (w *Workspace) SeedFolder(name, parentID string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextID("folder")
	w.folders[id] = &node{id: id, name: name, parent: parentOrRoot(parentID)}
	return id
}

// SeedLedger creates a spreadsheet without counting it as a create call
func (w *Workspace) SeedLedger(name, parentID string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextID("sheet")
	w.sheets[id] = &node{id: id, name: name, parent: parentOrRoot(parentID)}
	return id
}

// RemoveFolder deletes a folder the way a user trashing it in Drive would
func (w *Workspace) RemoveFolder(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.folders, id)
}

func (w *Workspace) FindFolder(ctx context.Context, name, parentID string) (*ports.Folder, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FindErr != nil {
		return nil, w.FindErr
	}
	parent := parentOrRoot(parentID)
	for _, f := range w.folders {
		if f.name == name && f.parent == parent {
			return &ports.Folder{ID: f.id, Name: f.name, URL: "folder://" + f.id}, nil
		}
	}
	return nil, nil
}

func (w *Workspace) GetFolder(ctx context.Context, id string) (*ports.Folder, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FindErr != nil {
		return nil, w.FindErr
	}
	f, ok := w.folders[id]
	if !ok {
		return nil, nil
	}
	return &ports.Folder{ID: f.id, Name: f.name, URL: "folder://" + f.id}, nil
}

func (w *Workspace) CreateFolder(ctx context.Context, name, parentID string) (*ports.Folder, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.CreateErr != nil {
		return nil, w.CreateErr
	}
	w.FolderCreates++
	id := w.nextID("folder")
	w.folders[id] = &node{id: id, name: name, parent: parentOrRoot(parentID)}
	return &ports.Folder{ID: id, Name: name, URL: "folder://" + id}, nil
}

func (w *Workspace) UploadFile(ctx context.Context, req ports.UploadRequest) (*ports.UploadedFile, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.UploadErr != nil {
		return nil, w.UploadErr
	}
	if parent := parentOrRoot(req.ParentID); parent != rootID {
		if _, ok := w.folders[parent]; !ok {
			return nil, fmt.Errorf("404: parent folder %s not found", parent)
		}
	}
	w.Uploads++
	id := w.nextID("file")
	w.files[id] = &node{id: id, name: req.Name, parent: parentOrRoot(req.ParentID), mime: req.MimeType, data: req.Content}
	return &ports.UploadedFile{ID: id, URL: "https://drive.google.com/file/d/" + id + "/view"}, nil
}

func (w *Workspace) FindSpreadsheet(ctx context.Context, name, parentID string) (*ports.Ledger, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FindErr != nil {
		return nil, w.FindErr
	}
	parent := parentOrRoot(parentID)
	for _, s := range w.sheets {
		if s.name == name && s.parent == parent {
			return &ports.Ledger{ID: s.id, URL: "sheet://" + s.id}, nil
		}
	}
	return nil, nil
}

func (w *Workspace) CreateLedger(ctx context.Context, spec ports.LedgerSpec) (*ports.Ledger, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.CreateErr != nil {
		return nil, w.CreateErr
	}
	w.LedgerCreates++
	id := w.nextID("sheet")
	header := make([]interface{}, 0, len(spec.Header))
	for _, h := range spec.Header {
		header = append(header, h)
	}
	w.sheets[id] = &node{id: id, name: spec.Title, parent: parentOrRoot(spec.ParentID), rows: [][]interface{}{header}}
	return &ports.Ledger{ID: id, URL: "sheet://" + id}, nil
}

func (w *Workspace) AppendRow(ctx context.Context, ledgerID, sheetName string, values []interface{}) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.AppendErr != nil {
		return "", w.AppendErr
	}
	s, ok := w.sheets[ledgerID]
	if !ok {
		return "", fmt.Errorf("spreadsheet %s not found", ledgerID)
	}
	w.Appends++
	s.rows = append(s.rows, values)
	n := len(s.rows)
	return fmt.Sprintf("%s!A%d:F%d", sheetName, n, n), nil
}

// Rows returns the data rows of a ledger, excluding the header
func (w *Workspace) Rows(ledgerID string) [][]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.sheets[ledgerID]
	if !ok || len(s.rows) == 0 {
		return nil
	}
	if s.rows[0] != nil && len(s.rows[0]) > 0 && s.rows[0][0] == "Timestamp" {
		return append([][]interface{}(nil), s.rows[1:]...)
	}
	return append([][]interface{}(nil), s.rows...)
}

// FilesIn returns the names of files uploaded under a folder
func (w *Workspace) FilesIn(folderID string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var names []string
	for _, f := range w.files {
		if f.parent == folderID {
			names = append(names, f.name)
		}
	}
	return names
}

// FolderCount returns how many folders with a name exist under a parent
func (w *Workspace) FolderCount(name, parentID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, f := range w.folders {
		if f.name == name && f.parent == parentOrRoot(parentID) {
			n++
		}
	}
	return n
}

// Factory hands out the same workspace for any non-empty credential
type Factory struct {
	Workspace *Workspace
	OpenErr   error
}

func (f *Factory) Open(ctx context.Context, credential string) (ports.Workspace, error) {
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	return f.Workspace, nil
}
