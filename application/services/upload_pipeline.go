package services

import (
	"context"
	"fmt"
	"sync"

	"bettersaved/application/ports"
	"bettersaved/domain/config"
	"bettersaved/domain/core/entities"
	pkgerrors "bettersaved/pkg/errors"

	"go.uber.org/zap"
)

// monthFolderTTL bounds how long a resolved month folder id is reused, in seconds
const monthFolderTTL = 3600

// UploadResult is the outcome of a successful upload
type UploadResult struct {
	FileID   string
	FileURL  string
	FileName string
	FolderID string
}

// UploadPipeline fetches the bytes of an item and stores them under root/{type}/{YYYY-MM}
type UploadPipeline struct {
	fetcher ports.ContentFetcher
	cache   ports.Cache
	clock   ports.Clock
	cfg     *config.DomainConfig
	logger  *zap.Logger

	// find-or-create is serialized per (parent, name) inside this process
	folderLocks sync.Map
}

// NewUploadPipeline creates a new upload pipeline. cache may be nil.
func NewUploadPipeline(
	fetcher ports.ContentFetcher,
	cache ports.Cache,
	clock ports.Clock,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *UploadPipeline {
	return &UploadPipeline{
		fetcher: fetcher,
		cache:   cache,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
}

// Upload stores one attachment. Every failure is reported as UPLOAD_FAILED and is not retried.
func (p *UploadPipeline) Upload(ctx context.Context, session *Session, item entities.ContentItem) (*UploadResult, error) {
	now := p.clock.Now()
	name := FileName(item, now, p.cfg.FileTimestampLayout)

	if !item.Category.IsAttachment() {
		return nil, pkgerrors.NewUploadFailedError(name, fmt.Errorf("category %s has no content to upload", item.Category))
	}

	folderID, folderKeys, err := p.destination(ctx, session, item, now.Format(p.cfg.MonthLayout))
	if err != nil {
		return nil, pkgerrors.NewUploadFailedError(name, err)
	}

	content, err := p.fetcher.Fetch(ctx, item.RawBytesHandle)
	if err != nil {
		return nil, pkgerrors.NewUploadFailedError(name, fmt.Errorf("fetch content: %w", err))
	}

	uploaded, err := session.Workspace.UploadFile(ctx, ports.UploadRequest{
		Name:     name,
		MimeType: item.MimeType,
		ParentID: folderID,
		Content:  content,
	})
	if err != nil {
		// the folder may have been deleted remotely; the next item looks it up again
		p.forget(ctx, folderKeys...)
		return nil, pkgerrors.NewUploadFailedError(name, err)
	}

	p.logger.Debug("File uploaded",
		zap.String("userID", item.SourceUserID),
		zap.String("itemID", item.ItemID),
		zap.String("fileName", name),
		zap.String("folderID", folderID),
		zap.Int("bytes", len(content)),
	)

	return &UploadResult{
		FileID:   uploaded.ID,
		FileURL:  uploaded.URL,
		FileName: name,
		FolderID: folderID,
	}, nil
}

// destination resolves root/{type}/{month}, creating missing folders.
// It also returns the cache keys it resolved through.
func (p *UploadPipeline) destination(ctx context.Context, session *Session, item entities.ContentItem, month string) (string, []string, error) {
	rs := session.Resources
	if rs.RootFolderID == "" {
		return "", nil, fmt.Errorf("resource set has no root folder")
	}

	var keys []string
	class := item.Category.FolderClass()
	typeID, ok := rs.TypeFolderID(class)
	if !ok {
		keys = append(keys, folderKey(rs.RootFolderID, class.FolderName()))
		folder, err := p.findOrCreate(ctx, session.Workspace, class.FolderName(), rs.RootFolderID)
		if err != nil {
			return "", nil, fmt.Errorf("type folder %s: %w", class.FolderName(), err)
		}
		typeID = folder
	}

	keys = append(keys, folderKey(typeID, month))
	monthID, err := p.findOrCreate(ctx, session.Workspace, month, typeID)
	if err != nil {
		return "", nil, fmt.Errorf("month folder %s: %w", month, err)
	}
	return monthID, keys, nil
}

func folderKey(parentID, name string) string {
	return "folder:" + parentID + "/" + name
}

func (p *UploadPipeline) forget(ctx context.Context, keys ...string) {
	if p.cache == nil {
		return
	}
	for _, key := range keys {
		_ = p.cache.Delete(ctx, key)
	}
}

func (p *UploadPipeline) findOrCreate(ctx context.Context, ws ports.Workspace, name, parentID string) (string, error) {
	key := folderKey(parentID, name)
	if id, ok := p.cached(ctx, key); ok {
		return id, nil
	}

	lock, _ := p.folderLocks.LoadOrStore(key, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	if id, ok := p.cached(ctx, key); ok {
		return id, nil
	}

	folder, err := ws.FindFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	if folder == nil {
		if folder, err = ws.CreateFolder(ctx, name, parentID); err != nil {
			return "", err
		}
	}

	if p.cache != nil {
		_ = p.cache.Set(ctx, key, folder.ID, monthFolderTTL)
	}
	return folder.ID, nil
}

func (p *UploadPipeline) cached(ctx context.Context, key string) (string, bool) {
	if p.cache == nil {
		return "", false
	}
	v, ok := p.cache.Get(ctx, key)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
