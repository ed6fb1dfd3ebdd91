package handlers

import (
	"errors"
	"net/http"

	"github.com/camden-git/portfoliobackend/services"
)

type TranslateHandler struct {
	Translator *services.Translator
}

type translateRequest struct {
	Text           string `json:"text" validate:"required"`
	TargetLanguage string `json:"targetLanguage" validate:"required"`
	SourceLanguage string `json:"sourceLanguage"`
}

func (th *TranslateHandler) Translate(w http.ResponseWriter, r *http.Request) error {
	if !th.Translator.Configured() {
		return errUnavailable("Translation service not configured")
	}

	var req translateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		return err
	}

	result, err := th.Translator.Translate(r.Context(), services.TranslateRequest{
		Text:           req.Text,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
	})
	switch {
	case errors.Is(err, services.ErrUnsupportedLanguage):
		return &APIError{Status: http.StatusBadRequest, Message: "Unsupported language", Detail: err.Error()}
	case errors.Is(err, services.ErrTranslationNotConfigured):
		return errUnavailable("Translation service not configured")
	case err != nil:
		return err
	}

	writeJSON(w, http.StatusOK, result)
	return nil
}
