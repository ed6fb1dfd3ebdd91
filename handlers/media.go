package handlers

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/logging"
	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/services"
)

const (
	defaultMaxUploadBytes = 20 << 20
	multipartMemory       = 8 << 20
)

type MediaHandler struct {
	DB             *sql.DB
	Library        *services.MediaLibrary
	MaxUploadBytes int64
	Log            *logging.Logger
}

func (mh *MediaHandler) library() (*services.MediaLibrary, error) {
	if mh.Library == nil {
		return nil, errUnavailable("Media storage not configured")
	}
	return mh.Library, nil
}

func filenameParam(r *http.Request) string {
	name := chi.URLParam(r, "filename")
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}

func (mh *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) error {
	lib, err := mh.library()
	if err != nil {
		return err
	}

	maxBytes := mh.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &APIError{Status: http.StatusRequestEntityTooLarge, Message: "File too large", Detail: "limit is " + strconv.FormatInt(maxBytes, 10) + " bytes"}
		}
		return &APIError{Status: http.StatusBadRequest, Message: "Invalid multipart form", Detail: err.Error()}
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		return errBadRequest("No file provided")
	}
	defer file.Close()

	result, err := lib.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, result)
	return nil
}

func (mh *MediaHandler) List(w http.ResponseWriter, r *http.Request) error {
	lib, err := mh.library()
	if err != nil {
		return err
	}
	items, err := lib.List(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"media": items})
	return nil
}

func (mh *MediaHandler) Stats(w http.ResponseWriter, r *http.Request) error {
	lib, err := mh.library()
	if err != nil {
		return err
	}
	stats, err := lib.Stats(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stats)
	return nil
}

// RegenerateThumbnails only enqueues work for originals that lack a thumbnail.
func (mh *MediaHandler) RegenerateThumbnails(w http.ResponseWriter, r *http.Request) error {
	lib, err := mh.library()
	if err != nil {
		return err
	}
	result, err := lib.RegenerateMissing(r.Context())
	if err != nil {
		return err
	}
	mh.Log.Info(mh.Log.WithFields(r.Context(), map[string]any{"queued": result.Queued, "skipped": result.Skipped}), "thumbnail regeneration requested")
	writeJSON(w, http.StatusOK, result)
	return nil
}

// ServeImage streams the stored object with its recorded content type.
func (mh *MediaHandler) ServeImage(w http.ResponseWriter, r *http.Request) error {
	lib, err := mh.library()
	if err != nil {
		return err
	}
	rc, info, err := lib.Open(r.Context(), filenameParam(r))
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return errNotFound("Image")
		}
		return err
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, info.Key, info.Uploaded, rs)
		return nil
	}
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		mh.Log.Warn(r.Context(), "failed to stream image", err)
	}
	return nil
}

// Usage reports the rows whose image_url points at the image. It is advisory:
// Delete does not consult it.
func (mh *MediaHandler) Usage(w http.ResponseWriter, r *http.Request) error {
	key := filenameParam(r)

	publicURL := "/images/" + url.PathEscape(key)
	var (
		usage database.ImageUsage
		err   error
	)
	if mh.Library != nil {
		publicURL = mh.Library.PublicURL(key)
		usage, err = mh.Library.Usage(r.Context(), mh.DB, key)
	} else {
		usage, err = database.FindImageUsage(r.Context(), mh.DB, []string{publicURL, "/images/" + key, key})
	}
	if err != nil {
		return err
	}

	total := usage.Total()
	writeJSON(w, http.StatusOK, map[string]any{
		"url":    publicURL,
		"usage":  usage,
		"total":  total,
		"in_use": total > 0,
	})
	return nil
}

func (mh *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	lib, err := mh.library()
	if err != nil {
		return err
	}
	key := filenameParam(r)
	deleted, err := lib.Delete(r.Context(), key)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return errNotFound("Image")
		}
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Image deleted successfully", "deleted": deleted})
	return nil
}
