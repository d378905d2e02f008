package handler

import (
	"net/http"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/storage"
)

// UploadHandler serves GET /uploads/{filename} from the upload directory.
func UploadHandler(uploads *storage.UploadStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := uploads.Path(r.PathValue("filename"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, path)
	}
}
