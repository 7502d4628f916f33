package entities

import "bettersaved/domain/core/valueobjects"

// ResourceSet holds the resolved remote handles needed before any upload.
// A resolver only ever hands out complete sets.
type ResourceSet struct {
	RootFolderID  string                              `json:"root_folder_id"`
	RootFolderURL string                              `json:"root_folder_url"`
	TypeFolderIDs map[valueobjects.FolderClass]string `json:"type_folder_ids,omitempty"`
	LedgerID      string                              `json:"ledger_id"`
	LedgerURL     string                              `json:"ledger_url"`
}

// Complete reports whether both the root folder and ledger are known
func (r ResourceSet) Complete() bool {
	return r.RootFolderID != "" && r.LedgerID != ""
}

// TypeFolderID returns the known folder id for a class, if any
func (r ResourceSet) TypeFolderID(class valueobjects.FolderClass) (string, bool) {
	if r.TypeFolderIDs == nil {
		return "", false
	}
	id, ok := r.TypeFolderIDs[class]
	return id, ok && id != ""
}

// Clone returns a deep copy so callers cannot share the folder map
func (r ResourceSet) Clone() ResourceSet {
	cp := r
	if r.TypeFolderIDs != nil {
		cp.TypeFolderIDs = make(map[valueobjects.FolderClass]string, len(r.TypeFolderIDs))
		for k, v := range r.TypeFolderIDs {
			cp.TypeFolderIDs[k] = v
		}
	}
	return cp
}
