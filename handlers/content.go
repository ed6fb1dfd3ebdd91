package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/portfoliobackend/repository"
)

type ContentHandler struct {
	Repo repository.ContentBlockRepositoryInterface
}

func (ch *ContentHandler) List(w http.ResponseWriter, r *http.Request) error {
	blocks, err := ch.Repo.ListAll(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"contents": blocks})
	return nil
}

func (ch *ContentHandler) Get(w http.ResponseWriter, r *http.Request) error {
	block, err := ch.Repo.GetByKey(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		return storeError(err, "Content")
	}
	writeJSON(w, http.StatusOK, map[string]any{"content": block})
	return nil
}

// Save creates or updates the block; fields missing from the body keep their value.
func (ch *ContentHandler) Save(w http.ResponseWriter, r *http.Request) error {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" {
		return errBadRequest("Content key is required")
	}
	var patch repository.ContentBlockPatch
	if _, err := decodeBody(r, &patch); err != nil {
		return err
	}
	if (patch.Title.Set && patch.Title.Null) || (patch.Content.Set && patch.Content.Null) {
		return errBadRequest("title and content cannot be null")
	}

	block, err := ch.Repo.Save(r.Context(), key, patch)
	if err != nil {
		return storeError(err, "Content")
	}
	writeJSON(w, http.StatusOK, map[string]any{"content": block})
	return nil
}
