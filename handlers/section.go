package handlers

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/logging"
)

type SectionHandler struct {
	DB  *sql.DB
	Log *logging.Logger
}

func (sh *SectionHandler) fetch(r *http.Request, id int64) (database.Section, error) {
	section, err := database.GetSectionByID(r.Context(), sh.DB, id)
	if err != nil {
		return database.Section{}, storeError(err, "Section")
	}
	return database.MergeOne(r.Context(), sh.DB, database.EntitySection, section)
}

func (sh *SectionHandler) List(w http.ResponseWriter, r *http.Request) error {
	sections, err := database.ListSections(r.Context(), sh.DB)
	if err != nil {
		return err
	}
	sections, err = database.MergeTranslations(r.Context(), sh.DB, database.EntitySection, sections)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
	return nil
}

func (sh *SectionHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id", "Section")
	if err != nil {
		return err
	}
	section, err := sh.fetch(r, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"section": section})
	return nil
}

func (sh *SectionHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var in database.SectionInput
	body, err := decodeBody(r, &in)
	if err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return errBadRequest("Name is required")
	}

	var id int64
	err = database.WithTx(r.Context(), sh.DB, func(q database.Querier) error {
		var err error
		if id, err = database.CreateSection(r.Context(), q, in); err != nil {
			return err
		}
		_, err = database.SaveTranslations(r.Context(), q, database.EntitySection, id, database.TranslationFields(body))
		return err
	})
	if err != nil {
		return storeError(err, "Section")
	}

	section, err := sh.fetch(r, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]any{"section": section})
	return nil
}

func (sh *SectionHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id", "Section")
	if err != nil {
		return err
	}
	var patch database.SectionPatch
	body, err := decodeBody(r, &patch)
	if err != nil {
		return err
	}

	err = database.WithTx(r.Context(), sh.DB, func(q database.Querier) error {
		if err := database.UpdateSection(r.Context(), q, id, patch); err != nil {
			return err
		}
		_, err := database.SaveTranslations(r.Context(), q, database.EntitySection, id, database.TranslationFields(body))
		return err
	})
	if err != nil {
		return storeError(err, "Section")
	}

	section, err := sh.fetch(r, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"section": section})
	return nil
}

func (sh *SectionHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id", "Section")
	if err != nil {
		return err
	}

	var section database.Section
	err = database.WithTx(r.Context(), sh.DB, func(q database.Querier) error {
		var err error
		section, err = database.DeleteSection(r.Context(), q, id)
		return err
	})
	if err != nil {
		return storeError(err, "Section")
	}

	sh.Log.Info(sh.Log.WithField(r.Context(), "section_id", id), "section deleted")
	writeJSON(w, http.StatusOK, map[string]any{"message": "Section deleted successfully", "section": section})
	return nil
}
