package models

import "time"

// DocumentSource tells where the active knowledge document came from.
type DocumentSource string

const (
	SourceDefault DocumentSource = "default"
	SourceUpload  DocumentSource = "upload"
)

// KnowledgeDocument is the raw text a session's answers are grounded in.
// It is replaced wholesale, never edited.
type KnowledgeDocument struct {
	Name     string         `json:"name"`
	Source   DocumentSource `json:"source"`
	Text     string         `json:"-"`
	Hash     string         `json:"hash"`
	LoadedAt time.Time      `json:"loaded_at"`
}

// DocumentInfo is the document summary returned to clients.
type DocumentInfo struct {
	Name      string         `json:"name"`
	Source    DocumentSource `json:"source"`
	Hash      string         `json:"hash"`
	Entries   int            `json:"entries"`
	LoadedAt  time.Time      `json:"loaded_at"`
	SizeBytes int            `json:"size_bytes"`
}
