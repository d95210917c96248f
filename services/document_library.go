package services

import (
	"errors"
	"os"
	"sync"
	"time"

	"github/itish2003/ddqchat/assets"
	"github/itish2003/ddqchat/knowledge"
	"github/itish2003/ddqchat/models"

	"go.uber.org/zap"
)

var errNoEntries = errors.New("document contains no question/answer entries")

// DocumentLibrary owns the default knowledge document and the parsed-base
// cache shared by every session.
type DocumentLibrary struct {
	path   string
	cache  *knowledge.Cache
	logger *zap.Logger

	mu      sync.RWMutex
	current models.KnowledgeDocument
}

// NewDocumentLibrary loads the default document from path, or the bundled
// asset when path is empty or unusable.
func NewDocumentLibrary(path string, cache *knowledge.Cache, logger *zap.Logger) *DocumentLibrary {
	l := &DocumentLibrary{
		path:    path,
		cache:   cache,
		logger:  logger,
		current: BundledDocument(),
	}
	if _, err := l.Reload(); err != nil {
		logger.Warn("Using bundled knowledge base", zap.Error(err))
	}
	return l
}

// BundledDocument is the knowledge document compiled into the binary.
func BundledDocument() models.KnowledgeDocument {
	return newDocument(assets.DefaultKnowledgeBaseName, models.SourceDefault, assets.DefaultKnowledgeBase)
}

// NewUploadedDocument wraps extracted upload text.
func NewUploadedDocument(name, text string) models.KnowledgeDocument {
	return newDocument(name, models.SourceUpload, text)
}

func newDocument(name string, source models.DocumentSource, text string) models.KnowledgeDocument {
	return models.KnowledgeDocument{
		Name:     name,
		Source:   source,
		Text:     text,
		Hash:     knowledge.HashText(text),
		LoadedAt: time.Now().UTC(),
	}
}

// Path is the configured default document path, empty for the bundled asset.
func (l *DocumentLibrary) Path() string {
	return l.path
}

// Default returns the current default document.
func (l *DocumentLibrary) Default() models.KnowledgeDocument {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Reload re-reads the configured file. It reports whether the default document
// changed; on error the previous document stays active.
func (l *DocumentLibrary) Reload() (bool, error) {
	if l.path == "" {
		return false, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return false, &knowledge.ParseError{Source: l.path, Err: err}
	}

	doc := newDocument(l.path, models.SourceDefault, string(data))
	if l.Base(doc).Len() == 0 {
		return false, &knowledge.ParseError{Source: l.path, Err: errNoEntries}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if doc.Hash == l.current.Hash {
		return false, nil
	}
	l.current = doc
	l.logger.Info("Default knowledge base loaded",
		zap.String("path", l.path),
		zap.String("hash", doc.Hash[:12]))
	return true, nil
}

// Base returns the parsed Q&A mapping for doc, reusing cached parses.
func (l *DocumentLibrary) Base(doc models.KnowledgeDocument) *knowledge.Base {
	return l.cache.Load(doc.Text)
}

// Info summarises doc for clients.
func (l *DocumentLibrary) Info(doc models.KnowledgeDocument) models.DocumentInfo {
	return models.DocumentInfo{
		Name:      doc.Name,
		Source:    doc.Source,
		Hash:      doc.Hash,
		Entries:   l.Base(doc).Len(),
		LoadedAt:  doc.LoadedAt,
		SizeBytes: len(doc.Text),
	}
}
