package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/logging"
)

type CollectionHandler struct {
	DB  *sql.DB
	Log *logging.Logger
}

// getCollectionByIdentifier tries the identifier as a slug first, then as an
// ID. Slugs may be all digits, so they win over IDs.
func (ch *CollectionHandler) getCollectionByIdentifier(r *http.Request, identifier string) (database.Collection, error) {
	collection, err := database.GetCollectionBySlug(r.Context(), ch.DB, identifier)
	if err == nil {
		return collection, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return database.Collection{}, fmt.Errorf("error fetching collection by slug '%s': %w", identifier, err)
	}

	id, parseErr := strconv.ParseInt(identifier, 10, 64)
	if parseErr != nil {
		return database.Collection{}, sql.ErrNoRows
	}
	collection, err = database.GetCollectionByID(r.Context(), ch.DB, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Collection{}, sql.ErrNoRows
		}
		return database.Collection{}, fmt.Errorf("error fetching collection by ID %d: %w", id, err)
	}
	return collection, nil
}

func (ch *CollectionHandler) fetch(r *http.Request, id int64) (database.Collection, error) {
	collection, err := database.GetCollectionByID(r.Context(), ch.DB, id)
	if err != nil {
		return database.Collection{}, storeError(err, "Collection")
	}
	return database.MergeOne(r.Context(), ch.DB, database.EntityCollection, collection)
}

func (ch *CollectionHandler) List(w http.ResponseWriter, r *http.Request) error {
	collections, err := database.ListCollections(r.Context(), ch.DB, queryBool(r, "all"))
	if err != nil {
		return err
	}
	collections, err = database.MergeTranslations(r.Context(), ch.DB, database.EntityCollection, collections)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": collections})
	return nil
}

// Get returns the collection with its translations and its visible artworks.
func (ch *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) error {
	collection, err := ch.getCollectionByIdentifier(r, chi.URLParam(r, "identifier"))
	if err != nil {
		return storeError(err, "Collection")
	}
	collection, err = database.MergeOne(r.Context(), ch.DB, database.EntityCollection, collection)
	if err != nil {
		return err
	}

	artworks, err := database.ListArtworks(r.Context(), ch.DB, database.ArtworkFilter{CollectionID: &collection.ID})
	if err != nil {
		return err
	}
	artworks, err = database.MergeTranslations(r.Context(), ch.DB, database.EntityArtwork, artworks)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, map[string]any{"collection": collection, "artworks": artworks})
	return nil
}

func (ch *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var in database.CollectionInput
	body, err := decodeBody(r, &in)
	if err != nil {
		return err
	}
	in.Slug = strings.TrimSpace(in.Slug)
	if strings.TrimSpace(in.Title) == "" || in.Slug == "" {
		return errBadRequest("Title and slug are required")
	}
	if !validSlug(in.Slug) {
		return errBadRequest("Slug may only contain lowercase letters, digits and hyphens")
	}

	var id int64
	err = database.WithTx(r.Context(), ch.DB, func(q database.Querier) error {
		var err error
		if id, err = database.CreateCollection(r.Context(), q, in); err != nil {
			return err
		}
		_, err = database.SaveTranslations(r.Context(), q, database.EntityCollection, id, database.TranslationFields(body))
		return err
	})
	if err != nil {
		return storeError(err, "Collection")
	}

	collection, err := ch.fetch(r, id)
	if err != nil {
		return err
	}
	ch.Log.Info(ch.Log.WithFields(r.Context(), map[string]any{"collection_id": id, "slug": in.Slug}), "collection created")
	writeJSON(w, http.StatusCreated, map[string]any{"collection": collection})
	return nil
}

func (ch *CollectionHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "identifier", "Collection")
	if err != nil {
		return err
	}
	var patch database.CollectionPatch
	body, err := decodeBody(r, &patch)
	if err != nil {
		return err
	}
	if patch.Slug.Set && !patch.Slug.Null {
		patch.Slug.Value = strings.TrimSpace(patch.Slug.Value)
		if !validSlug(patch.Slug.Value) {
			return errBadRequest("Slug may only contain lowercase letters, digits and hyphens")
		}
	}

	err = database.WithTx(r.Context(), ch.DB, func(q database.Querier) error {
		if err := database.UpdateCollection(r.Context(), q, id, patch); err != nil {
			return err
		}
		_, err := database.SaveTranslations(r.Context(), q, database.EntityCollection, id, database.TranslationFields(body))
		return err
	})
	if err != nil {
		return storeError(err, "Collection")
	}

	collection, err := ch.fetch(r, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"collection": collection})
	return nil
}

func (ch *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "identifier", "Collection")
	if err != nil {
		return err
	}

	var collection database.Collection
	err = database.WithTx(r.Context(), ch.DB, func(q database.Querier) error {
		var err error
		collection, err = database.DeleteCollection(r.Context(), q, id)
		return err
	})
	if err != nil {
		return storeError(err, "Collection")
	}

	ch.Log.Info(ch.Log.WithField(r.Context(), "collection_id", id), "collection deleted")
	writeJSON(w, http.StatusOK, map[string]any{"message": "Collection deleted successfully", "collection": collection})
	return nil
}
