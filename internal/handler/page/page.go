// Package page embeds the single chat page served by the browser view.
package page

import (
	_ "embed"
	"net/http"

	"github.com/zhouzirui/thalassa/pkg/utils"
)

//go:embed index.html
var index []byte

// Index serves the chat page.
func Index(w http.ResponseWriter, r *http.Request) {
	utils.RespondHTML(w, http.StatusOK, index)
}
