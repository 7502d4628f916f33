package config

import "time"

// DomainConfig holds the fixed names and timings the ingestion pipeline relies on
type DomainConfig struct {
	// Remote layout
	RootFolderName  string
	LedgerName      string
	LedgerSheetName string
	TypeFolderNames []string
	MonthLayout     string

	// Ledger shape
	LedgerHeader  []string
	SourceLiteral string

	// Naming
	FileTimestampLayout   string
	LedgerTimestampLayout string

	// Timing
	GroupFinalizeDelay time.Duration
	MessageDeleteDelay time.Duration

	// Profile defaults
	DefaultLanguage string
}

// Type folder names created under the root folder.
const (
	FolderImages  = "Images"
	FolderVideo   = "Video"
	FolderAudio   = "Audio"
	FolderPDF     = "PDF"
	FolderTickets = "Tickets"
)

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		RootFolderName:  "BetterSaved",
		LedgerName:      "BetterSavedMessages",
		LedgerSheetName: "Messages",
		TypeFolderNames: []string{FolderImages, FolderVideo, FolderAudio, FolderPDF, FolderTickets},
		MonthLayout:     "2006-01",

		LedgerHeader:  []string{"Timestamp", "Source", "Category", "Content", "ForwardedFrom", "Link"},
		SourceLiteral: "Telegram Bot Chat",

		FileTimestampLayout:   "20060102_150405",
		LedgerTimestampLayout: "2006-01-02 15:04:05",

		GroupFinalizeDelay: 5 * time.Second,
		MessageDeleteDelay: 5 * time.Second,

		DefaultLanguage: "en",
	}
}

// WithDelays returns a copy of the configuration with overridden timers
func (c *DomainConfig) WithDelays(finalize, deleteAfter time.Duration) *DomainConfig {
	cp := *c
	if finalize > 0 {
		cp.GroupFinalizeDelay = finalize
	}
	if deleteAfter > 0 {
		cp.MessageDeleteDelay = deleteAfter
	}
	return &cp
}
