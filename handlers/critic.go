package handlers

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/logging"
)

type CriticHandler struct {
	DB  *sql.DB
	Log *logging.Logger
}

func (ch *CriticHandler) fetch(r *http.Request, id int64) (database.Critic, error) {
	critic, err := database.GetCriticByID(r.Context(), ch.DB, id)
	if err != nil {
		return database.Critic{}, storeError(err, "Critic")
	}
	return database.MergeOne(r.Context(), ch.DB, database.EntityCritic, critic)
}

func (ch *CriticHandler) List(w http.ResponseWriter, r *http.Request) error {
	critics, err := database.ListCritics(r.Context(), ch.DB)
	if err != nil {
		return err
	}
	critics, err = database.MergeTranslations(r.Context(), ch.DB, database.EntityCritic, critics)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"critics": critics})
	return nil
}

func (ch *CriticHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id", "Critic")
	if err != nil {
		return err
	}
	critic, err := ch.fetch(r, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"critic": critic})
	return nil
}

func (ch *CriticHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var in database.CriticInput
	body, err := decodeBody(r, &in)
	if err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return errBadRequest("Name is required")
	}

	var id int64
	err = database.WithTx(r.Context(), ch.DB, func(q database.Querier) error {
		var err error
		if id, err = database.CreateCritic(r.Context(), q, in); err != nil {
			return err
		}
		_, err = database.SaveTranslations(r.Context(), q, database.EntityCritic, id, database.TranslationFields(body))
		return err
	})
	if err != nil {
		return storeError(err, "Critic")
	}

	critic, err := ch.fetch(r, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]any{"critic": critic})
	return nil
}

func (ch *CriticHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id", "Critic")
	if err != nil {
		return err
	}
	var patch database.CriticPatch
	body, err := decodeBody(r, &patch)
	if err != nil {
		return err
	}

	err = database.WithTx(r.Context(), ch.DB, func(q database.Querier) error {
		if err := database.UpdateCritic(r.Context(), q, id, patch); err != nil {
			return err
		}
		_, err := database.SaveTranslations(r.Context(), q, database.EntityCritic, id, database.TranslationFields(body))
		return err
	})
	if err != nil {
		return storeError(err, "Critic")
	}

	critic, err := ch.fetch(r, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"critic": critic})
	return nil
}

func (ch *CriticHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id", "Critic")
	if err != nil {
		return err
	}

	var critic database.Critic
	err = database.WithTx(r.Context(), ch.DB, func(q database.Querier) error {
		var err error
		critic, err = database.DeleteCritic(r.Context(), q, id)
		return err
	})
	if err != nil {
		return storeError(err, "Critic")
	}

	ch.Log.Info(ch.Log.WithField(r.Context(), "critic_id", id), "critic deleted")
	writeJSON(w, http.StatusOK, map[string]any{"message": "Critic deleted successfully", "critic": critic})
	return nil
}
