package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/logging"
)

type ExhibitionHandler struct {
	DB  *sql.DB
	Log *logging.Logger
}

// getExhibitionByIdentifier resolves a slug first and falls back to a numeric ID.
func (eh *ExhibitionHandler) getExhibitionByIdentifier(r *http.Request, identifier string) (database.Exhibition, error) {
	exhibition, err := database.GetExhibitionBySlug(r.Context(), eh.DB, identifier)
	if err == nil || !errors.Is(err, sql.ErrNoRows) {
		return exhibition, err
	}
	id, parseErr := strconv.ParseInt(identifier, 10, 64)
	if parseErr != nil {
		return database.Exhibition{}, err
	}
	return database.GetExhibitionByID(r.Context(), eh.DB, id)
}

// checkExhibitionSlug trims slug in place. An empty slug means "no slug".
func checkExhibitionSlug(slug *string) error {
	*slug = strings.TrimSpace(*slug)
	if *slug != "" && !validSlug(*slug) {
		return errBadRequest("Slug may only contain lowercase letters, digits and hyphens")
	}
	return nil
}

func (eh *ExhibitionHandler) fetch(r *http.Request, id int64) (database.Exhibition, error) {
	exhibition, err := database.GetExhibitionByID(r.Context(), eh.DB, id)
	if err != nil {
		return database.Exhibition{}, storeError(err, "Exhibition")
	}
	return database.MergeOne(r.Context(), eh.DB, database.EntityExhibition, exhibition)
}

func (eh *ExhibitionHandler) List(w http.ResponseWriter, r *http.Request) error {
	exhibitions, err := database.ListExhibitions(r.Context(), eh.DB)
	if err != nil {
		return err
	}
	exhibitions, err = database.MergeTranslations(r.Context(), eh.DB, database.EntityExhibition, exhibitions)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"exhibitions": exhibitions})
	return nil
}

func (eh *ExhibitionHandler) Get(w http.ResponseWriter, r *http.Request) error {
	exhibition, err := eh.getExhibitionByIdentifier(r, chi.URLParam(r, "identifier"))
	if err != nil {
		return storeError(err, "Exhibition")
	}
	exhibition, err = database.MergeOne(r.Context(), eh.DB, database.EntityExhibition, exhibition)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"exhibition": exhibition})
	return nil
}

func (eh *ExhibitionHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var in database.ExhibitionInput
	body, err := decodeBody(r, &in)
	if err != nil {
		return err
	}
	if strings.TrimSpace(in.Title) == "" {
		return errBadRequest("Title is required")
	}
	if in.Slug != nil {
		if err := checkExhibitionSlug(in.Slug); err != nil {
			return err
		}
	}

	var id int64
	err = database.WithTx(r.Context(), eh.DB, func(q database.Querier) error {
		var err error
		if id, err = database.CreateExhibition(r.Context(), q, in); err != nil {
			return err
		}
		_, err = database.SaveTranslations(r.Context(), q, database.EntityExhibition, id, database.TranslationFields(body))
		return err
	})
	if err != nil {
		return storeError(err, "Exhibition")
	}

	exhibition, err := eh.fetch(r, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]any{"exhibition": exhibition})
	return nil
}

func (eh *ExhibitionHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "identifier", "Exhibition")
	if err != nil {
		return err
	}
	var patch database.ExhibitionPatch
	body, err := decodeBody(r, &patch)
	if err != nil {
		return err
	}
	if patch.Slug.Set && !patch.Slug.Null {
		if err := checkExhibitionSlug(&patch.Slug.Value); err != nil {
			return err
		}
	}

	err = database.WithTx(r.Context(), eh.DB, func(q database.Querier) error {
		if err := database.UpdateExhibition(r.Context(), q, id, patch); err != nil {
			return err
		}
		_, err := database.SaveTranslations(r.Context(), q, database.EntityExhibition, id, database.TranslationFields(body))
		return err
	})
	if err != nil {
		return storeError(err, "Exhibition")
	}

	exhibition, err := eh.fetch(r, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"exhibition": exhibition})
	return nil
}

func (eh *ExhibitionHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "identifier", "Exhibition")
	if err != nil {
		return err
	}

	var exhibition database.Exhibition
	err = database.WithTx(r.Context(), eh.DB, func(q database.Querier) error {
		var err error
		exhibition, err = database.DeleteExhibition(r.Context(), q, id)
		return err
	})
	if err != nil {
		return storeError(err, "Exhibition")
	}

	eh.Log.Info(eh.Log.WithField(r.Context(), "exhibition_id", id), "exhibition deleted")
	writeJSON(w, http.StatusOK, map[string]any{"message": "Exhibition deleted successfully", "exhibition": exhibition})
	return nil
}
