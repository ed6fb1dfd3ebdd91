package handlers

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/logging"
)

type ArtworkHandler struct {
	DB  *sql.DB
	Log *logging.Logger
}

func (ah *ArtworkHandler) fetch(r *http.Request, id int64) (database.Artwork, error) {
	artwork, err := database.GetArtworkByID(r.Context(), ah.DB, id)
	if err != nil {
		return database.Artwork{}, storeError(err, "Artwork")
	}
	return database.MergeOne(r.Context(), ah.DB, database.EntityArtwork, artwork)
}

// List supports ?collection_id=, ?section_id= and ?all=true. collection_id
// wins when both filters are given.
func (ah *ArtworkHandler) List(w http.ResponseWriter, r *http.Request) error {
	collectionID, err := queryID(r, "collection_id")
	if err != nil {
		return err
	}
	filter := database.ArtworkFilter{CollectionID: collectionID, All: queryBool(r, "all")}
	if collectionID == nil {
		if filter.SectionID, err = queryID(r, "section_id"); err != nil {
			return err
		}
	}

	artworks, err := database.ListArtworks(r.Context(), ah.DB, filter)
	if err != nil {
		return err
	}
	artworks, err = database.MergeTranslations(r.Context(), ah.DB, database.EntityArtwork, artworks)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"artworks": artworks})
	return nil
}

func (ah *ArtworkHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id", "Artwork")
	if err != nil {
		return err
	}
	artwork, err := ah.fetch(r, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"artwork": artwork})
	return nil
}

func (ah *ArtworkHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var in database.ArtworkInput
	body, err := decodeBody(r, &in)
	if err != nil {
		return err
	}
	if strings.TrimSpace(in.Title) == "" && in.CollectionID == nil && in.SectionID == nil {
		return errBadRequest("Title or collection_id/section_id is required")
	}

	var id int64
	err = database.WithTx(r.Context(), ah.DB, func(q database.Querier) error {
		var err error
		if id, err = database.CreateArtwork(r.Context(), q, in); err != nil {
			return err
		}
		_, err = database.SaveTranslations(r.Context(), q, database.EntityArtwork, id, database.TranslationFields(body))
		return err
	})
	if err != nil {
		return storeError(err, "Artwork")
	}

	artwork, err := ah.fetch(r, id)
	if err != nil {
		return err
	}
	ah.Log.Info(ah.Log.WithField(r.Context(), "artwork_id", id), "artwork created")
	writeJSON(w, http.StatusCreated, map[string]any{"artwork": artwork})
	return nil
}

func (ah *ArtworkHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id", "Artwork")
	if err != nil {
		return err
	}
	var patch database.ArtworkPatch
	body, err := decodeBody(r, &patch)
	if err != nil {
		return err
	}

	err = database.WithTx(r.Context(), ah.DB, func(q database.Querier) error {
		if err := database.UpdateArtwork(r.Context(), q, id, patch); err != nil {
			return err
		}
		_, err := database.SaveTranslations(r.Context(), q, database.EntityArtwork, id, database.TranslationFields(body))
		return err
	})
	if err != nil {
		return storeError(err, "Artwork")
	}

	artwork, err := ah.fetch(r, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"artwork": artwork})
	return nil
}

func (ah *ArtworkHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id", "Artwork")
	if err != nil {
		return err
	}

	var artwork database.Artwork
	err = database.WithTx(r.Context(), ah.DB, func(q database.Querier) error {
		var err error
		artwork, err = database.DeleteArtwork(r.Context(), q, id)
		return err
	})
	if err != nil {
		return storeError(err, "Artwork")
	}

	ah.Log.Info(ah.Log.WithField(r.Context(), "artwork_id", id), "artwork deleted")
	writeJSON(w, http.StatusOK, map[string]any{"message": "Artwork deleted successfully", "artwork": artwork})
	return nil
}
