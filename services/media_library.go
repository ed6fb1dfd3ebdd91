package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/logging"
	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/models"
	"github.com/camden-git/portfoliobackend/repository"
	"github.com/camden-git/portfoliobackend/workers"
)

// ThumbnailQueue accepts background thumbnail jobs.
type ThumbnailQueue interface {
	QueueJob(job workers.ThumbnailJob) bool
}

// MediaItem is one stored object as presented by the media endpoints.
type MediaItem struct {
	Key          string     `json:"key"`
	URL          string     `json:"url"`
	Size         int64      `json:"size"`
	Uploaded     time.Time  `json:"uploaded"`
	ContentType  string     `json:"content_type"`
	OriginalKey  *string    `json:"original_key"`
	ThumbnailURL *string    `json:"thumbnail_url"`
	Width        *int       `json:"width,omitempty"`
	Height       *int       `json:"height,omitempty"`
	TakenAt      *time.Time `json:"taken_at,omitempty"`
}

type UploadResult struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	Media        MediaItem `json:"media"`
}

type StorageStats struct {
	TotalObjects int   `json:"total_objects"`
	TotalSize    int64 `json:"total_size"`
	Originals    int   `json:"originals"`
	Thumbnails   int   `json:"thumbnails"`
}

type RegenerateResult struct {
	Queued  int `json:"queued"`
	Skipped int `json:"skipped"`
}

// MediaLibrary ties the blob store to the media metadata table and the
// thumbnail pipeline. Derived assets are tracked through original_key; the
// "_thumb" naming convention is only consulted for objects without metadata.
type MediaLibrary struct {
	Store     media.Store
	Repo      repository.MediaObjectRepositoryInterface
	Processor *media.Processor
	Queue     ThumbnailQueue
	BaseURL   string
	Log       *logging.Logger
}

func NewMediaLibrary(store media.Store, repo repository.MediaObjectRepositoryInterface, processor *media.Processor, baseURL string, log *logging.Logger) *MediaLibrary {
	if log == nil {
		log = logging.Nop()
	}
	return &MediaLibrary{
		Store:     store,
		Repo:      repo,
		Processor: processor,
		BaseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Log:       log,
	}
}

// PublicURL is the URL under which the image endpoint serves key.
func (l *MediaLibrary) PublicURL(key string) string {
	return l.BaseURL + "/images/" + url.PathEscape(key)
}

// Upload stores the file under a fresh "{unixMillis}-{name}" key. Raster
// images also get their dimensions recorded and a thumbnail generated; a
// failing thumbnail is logged and does not fail the upload.
func (l *MediaLibrary) Upload(ctx context.Context, filename, contentType string, body io.ReadSeeker) (UploadResult, error) {
	key := media.ObjectKey(time.Now(), filename)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = media.ContentTypeFor(key)
	}
	ctx = l.Log.WithField(ctx, "key", key)

	info, err := l.Store.Put(ctx, key, contentType, body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to store upload: %w", err)
	}

	uploaded := info.Uploaded
	record := &models.MediaObject{
		Key:         key,
		ContentType: info.ContentType,
		Size:        info.Size,
		UploadedAt:  &uploaded,
	}

	var thumbRecord *models.MediaObject
	if media.IsRasterImage(key) {
		thumbRecord = l.processUpload(ctx, body, record)
	}

	if err := l.Repo.Save(ctx, record); err != nil {
		return UploadResult{}, err
	}
	if thumbRecord != nil {
		if err := l.Repo.Save(ctx, thumbRecord); err != nil {
			return UploadResult{}, err
		}
	}

	item := l.describe(info, record)
	result := UploadResult{Key: key, URL: item.URL, Media: item}
	if thumbRecord != nil {
		thumbURL := l.PublicURL(thumbRecord.Key)
		result.ThumbnailURL = &thumbURL
		result.Media.ThumbnailURL = &thumbURL
	}

	l.Log.Info(ctx, "media: upload stored")
	return result, nil
}

func (l *MediaLibrary) processUpload(ctx context.Context, body io.ReadSeeker, record *models.MediaObject) *models.MediaObject {
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		l.Log.Warn(ctx, "media: cannot rewind upload for metadata", err)
		return nil
	}
	meta, err := media.ExtractMetadata(body)
	if err != nil {
		l.Log.Warn(ctx, "media: metadata extraction failed", err)
	}
	record.Width, record.Height, record.TakenAt = meta.Width, meta.Height, meta.TakenAt

	if l.Processor == nil {
		return nil
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		l.Log.Warn(ctx, "media: cannot rewind upload for thumbnail", err)
		return nil
	}
	img, err := media.Decode(body)
	if err != nil {
		l.Log.Warn(ctx, "media: cannot decode upload, skipping thumbnail", err)
		return nil
	}
	thumb, err := l.Processor.GenerateThumbnail(ctx, img, record.Key)
	if err != nil {
		l.Log.Warn(ctx, "media: thumbnail generation failed", err)
		return nil
	}
	return thumbnailRecord(thumb, record.Key)
}

func thumbnailRecord(thumb media.ObjectInfo, originalKey string) *models.MediaObject {
	uploaded := thumb.Uploaded
	original := originalKey
	return &models.MediaObject{
		Key:         thumb.Key,
		OriginalKey: &original,
		ContentType: thumb.ContentType,
		Size:        thumb.Size,
		UploadedAt:  &uploaded,
	}
}

// Open returns the object body for the image endpoint.
func (l *MediaLibrary) Open(ctx context.Context, key string) (io.ReadCloser, media.ObjectInfo, error) {
	if err := media.ValidateKey(key); err != nil {
		return nil, media.ObjectInfo{}, fmt.Errorf("%w: %s", media.ErrNotFound, key)
	}
	return l.Store.Get(ctx, key)
}

type libraryIndex struct {
	records    map[string]models.MediaObject
	objects    map[string]bool
	thumbnails map[string]string
}

func (l *MediaLibrary) index(ctx context.Context, objects []media.ObjectInfo) (libraryIndex, error) {
	records, err := l.Repo.ListAll(ctx)
	if err != nil {
		return libraryIndex{}, err
	}
	idx := libraryIndex{
		records:    make(map[string]models.MediaObject, len(records)),
		objects:    make(map[string]bool, len(objects)),
		thumbnails: make(map[string]string),
	}
	for _, obj := range objects {
		idx.objects[obj.Key] = true
	}
	for _, rec := range records {
		idx.records[rec.Key] = rec
		if rec.IsDerived() && idx.objects[rec.Key] {
			idx.thumbnails[*rec.OriginalKey] = rec.Key
		}
	}
	return idx, nil
}

func (idx libraryIndex) isDerived(key string) bool {
	if rec, ok := idx.records[key]; ok {
		return rec.IsDerived()
	}
	return media.LooksDerived(key)
}

func (idx libraryIndex) thumbnailFor(key string) (string, bool) {
	if thumb, ok := idx.thumbnails[key]; ok {
		return thumb, true
	}
	for _, legacy := range media.LegacyThumbnailKeys(key) {
		if idx.objects[legacy] {
			if _, tracked := idx.records[legacy]; !tracked {
				return legacy, true
			}
		}
	}
	return "", false
}

func (l *MediaLibrary) describe(info media.ObjectInfo, rec *models.MediaObject) MediaItem {
	item := MediaItem{
		Key:         info.Key,
		URL:         l.PublicURL(info.Key),
		Size:        info.Size,
		Uploaded:    info.Uploaded,
		ContentType: info.ContentType,
	}
	if rec != nil {
		item.OriginalKey = rec.OriginalKey
		item.Width, item.Height, item.TakenAt = rec.Width, rec.Height, rec.TakenAt
	}
	return item
}

// List returns every stored object in the given sort order.
func (l *MediaLibrary) List(ctx context.Context, order string) ([]MediaItem, error) {
	objects, err := l.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := l.index(ctx, objects)
	if err != nil {
		return nil, err
	}
	if !media.IsValidSortOrder(order) {
		order = media.DefaultSortOrder
	}
	media.SortObjects(objects, order)

	items := make([]MediaItem, 0, len(objects))
	for _, obj := range objects {
		var rec *models.MediaObject
		if r, ok := idx.records[obj.Key]; ok {
			rec = &r
		}
		item := l.describe(obj, rec)
		if item.OriginalKey == nil && media.LooksDerived(obj.Key) && rec == nil {
			for _, other := range objects {
				if other.Key != obj.Key && containsKey(media.LegacyThumbnailKeys(other.Key), obj.Key) {
					original := other.Key
					item.OriginalKey = &original
					break
				}
			}
		}
		if !idx.isDerived(obj.Key) {
			if thumb, ok := idx.thumbnailFor(obj.Key); ok {
				thumbURL := l.PublicURL(thumb)
				item.ThumbnailURL = &thumbURL
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func (l *MediaLibrary) Stats(ctx context.Context) (StorageStats, error) {
	objects, err := l.Store.List(ctx)
	if err != nil {
		return StorageStats{}, err
	}
	idx, err := l.index(ctx, objects)
	if err != nil {
		return StorageStats{}, err
	}

	stats := StorageStats{TotalObjects: len(objects)}
	for _, obj := range objects {
		stats.TotalSize += obj.Size
		if idx.isDerived(obj.Key) {
			stats.Thumbnails++
		} else {
			stats.Originals++
		}
	}
	return stats, nil
}

// Delete removes key together with every asset derived from it and returns
// the keys that were removed. Deleting an image that is still referenced is
// allowed.
func (l *MediaLibrary) Delete(ctx context.Context, key string) ([]string, error) {
	if err := media.ValidateKey(key); err != nil {
		return nil, fmt.Errorf("%w: %s", media.ErrNotFound, key)
	}
	if _, err := l.Store.Stat(ctx, key); err != nil {
		return nil, err
	}

	derived, err := l.Repo.ListDerived(ctx, key)
	if err != nil {
		return nil, err
	}
	candidates := make([]string, 0, len(derived)+2)
	for _, d := range derived {
		candidates = append(candidates, d.Key)
	}
	for _, legacy := range media.LegacyThumbnailKeys(key) {
		if legacy != key && !containsKey(candidates, legacy) {
			candidates = append(candidates, legacy)
		}
	}

	if err := l.Store.Delete(ctx, key); err != nil {
		return nil, err
	}
	deleted := []string{key}

	var errs error
	for _, d := range candidates {
		err := l.Store.Delete(ctx, d)
		switch {
		case err == nil:
			deleted = append(deleted, d)
		case errors.Is(err, media.ErrNotFound):
		default:
			errs = multierr.Append(errs, err)
		}
	}

	errs = multierr.Append(errs, l.Repo.Delete(ctx, append([]string{key}, candidates...)...))
	if errs != nil {
		return deleted, fmt.Errorf("failed to delete derived assets of %s: %w", key, errs)
	}

	l.Log.Info(l.Log.WithFields(ctx, map[string]any{"key": key, "deleted": len(deleted)}), "media: deleted object")
	return deleted, nil
}

// UsageCandidates lists the image_url values that refer to key.
func (l *MediaLibrary) UsageCandidates(key string) []string {
	candidates := []string{l.PublicURL(key), "/images/" + key, "images/" + key, key}
	if escaped := url.PathEscape(key); escaped != key {
		candidates = append(candidates, "/images/"+escaped)
	}
	seen := make(map[string]bool, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Usage reports which artworks, collections and exhibitions reference key.
func (l *MediaLibrary) Usage(ctx context.Context, q database.Querier, key string) (database.ImageUsage, error) {
	return database.FindImageUsage(ctx, q, l.UsageCandidates(key))
}

// RegenerateMissing queues a thumbnail job for every raster original that has
// none. Without a queue the thumbnails are generated inline.
func (l *MediaLibrary) RegenerateMissing(ctx context.Context) (RegenerateResult, error) {
	objects, err := l.Store.List(ctx)
	if err != nil {
		return RegenerateResult{}, err
	}
	idx, err := l.index(ctx, objects)
	if err != nil {
		return RegenerateResult{}, err
	}

	var result RegenerateResult
	for _, obj := range objects {
		if !media.IsRasterImage(obj.Key) || idx.isDerived(obj.Key) {
			continue
		}
		if _, ok := idx.thumbnailFor(obj.Key); ok {
			result.Skipped++
			continue
		}
		if l.Queue == nil {
			if err := l.RegenerateThumbnail(ctx, obj.Key); err != nil {
				l.Log.Warn(l.Log.WithField(ctx, "key", obj.Key), "media: inline thumbnail regeneration failed", err)
				result.Skipped++
				continue
			}
			result.Queued++
			continue
		}
		if l.Queue.QueueJob(workers.ThumbnailJob{OriginalKey: obj.Key}) {
			result.Queued++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

// RegenerateThumbnail rebuilds the thumbnail of one original and records it.
// It backfills the original's metadata row when the object predates it.
func (l *MediaLibrary) RegenerateThumbnail(ctx context.Context, originalKey string) error {
	if l.Processor == nil {
		return errors.New("media processor not configured")
	}
	thumb, img, err := l.Processor.GenerateThumbnailFromStore(ctx, originalKey)
	if err != nil {
		return err
	}

	if _, err := l.Repo.GetByKey(ctx, originalKey); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		info, err := l.Store.Stat(ctx, originalKey)
		if err != nil {
			return err
		}
		uploaded := info.Uploaded
		w, h := img.Bounds().Dx(), img.Bounds().Dy()
		original := &models.MediaObject{
			Key:         originalKey,
			ContentType: info.ContentType,
			Size:        info.Size,
			Width:       &w,
			Height:      &h,
			UploadedAt:  &uploaded,
		}
		if err := l.Repo.Save(ctx, original); err != nil {
			return err
		}
	}

	return l.Repo.Save(ctx, thumbnailRecord(thumb, originalKey))
}
