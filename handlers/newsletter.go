package handlers

import (
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/portfoliobackend/logging"
	"github.com/camden-git/portfoliobackend/repository"
)

type NewsletterHandler struct {
	Repo repository.NewsletterRepositoryInterface
	Log  *logging.Logger
}

type subscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Subscribe answers 201 for a new address and 200 with alreadySubscribed
// when the address (compared case-insensitively) is already on the list.
func (nh *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) error {
	var req subscribeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		return err
	}

	sub, created, err := nh.Repo.Subscribe(r.Context(), req.Email, clientIP(r), r.UserAgent())
	if err != nil {
		return err
	}
	if !created {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Already subscribed", "alreadySubscribed": true})
		return nil
	}

	nh.Log.Info(nh.Log.WithField(r.Context(), "subscriber_id", sub.ID), "newsletter subscription created")
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Subscribed successfully", "subscriber": sub})
	return nil
}

func (nh *NewsletterHandler) List(w http.ResponseWriter, r *http.Request) error {
	subs, err := nh.Repo.ListAll(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscribers": subs, "count": len(subs)})
	return nil
}

func (nh *NewsletterHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 0)
	if err != nil || id == 0 {
		return errNotFound("Subscriber")
	}
	sub, err := nh.Repo.Delete(r.Context(), uint(id))
	if err != nil {
		return storeError(err, "Subscriber")
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Subscriber deleted successfully", "subscriber": sub})
	return nil
}
