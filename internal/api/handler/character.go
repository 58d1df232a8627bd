package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pirateclash/internal/api/response"
	"github.com/mcoot/pirateclash/internal/catalog"
	"github.com/mcoot/pirateclash/internal/model"
)

// CharacterHandler serves the fighter catalog
type CharacterHandler struct {
	catalog *catalog.Catalog
}

// NewCharacterHandler creates a new character handler
func NewCharacterHandler(cat *catalog.Catalog) *CharacterHandler {
	return &CharacterHandler{catalog: cat}
}

// List handles GET /api/v1/characters
func (h *CharacterHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.CharactersFromModel(h.catalog.All()))
}

// Get handles GET /api/v1/characters/{id}
func (h *CharacterHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.CharacterID(mux.Vars(r)["id"])

	c, err := h.catalog.Get(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CharacterFromModel(c))
}
