package main

import (
	"net/http"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// uploadResult describes one successfully stored file.
type uploadResult struct {
	Path     string `json:"path"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// uploadError describes one file that could not be stored.
type uploadError struct {
	FileName string `json:"fileName"`
	Error    string `json:"error"`
}

// uniqueName derives a collision-free name from the original file name.
func uniqueName(original string) string {
	clean := strings.ReplaceAll(strings.TrimSpace(original), " ", "_")
	return uuid.NewString()[:8] + "-" + clean
}

// handleUpload accepts a multipart form with files[], bucket and an
// optional folder, stores each file in Cloudinary and reports per-file
// success and failure separately. One bad file does not fail the batch.
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.cloudURL == "" {
		s.fail(w, http.StatusServiceUnavailable, "file storage is not configured")
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.fail(w, http.StatusBadRequest, "parse multipart: "+err.Error())
		return
	}

	bucket := strings.TrimSpace(r.FormValue("bucket"))
	if bucket == "" {
		s.failValidation(w, fieldErrors{"bucket": "bucket is required"})
		return
	}
	folder := strings.TrimSpace(r.FormValue("folder"))

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["files[]"]
	}
	if len(files) == 0 {
		s.failValidation(w, fieldErrors{"files": "at least one file is required"})
		return
	}

	cld, err := cloudinary.NewFromURL(s.cloudURL)
	if err != nil {
		s.log.WithError(err).Error("cloudinary init")
		s.fail(w, http.StatusInternalServerError, "file storage init failed")
		return
	}

	dir := path.Join(bucket, folder)
	succeeded := []uploadResult{}
	failed := []uploadError{}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			failed = append(failed, uploadError{FileName: fh.Filename, Error: err.Error()})
			continue
		}
		name := uniqueName(fh.Filename)
		res, err := cld.Upload.Upload(r.Context(), f, uploader.UploadParams{
			Folder:   dir,
			PublicID: strings.TrimSuffix(name, path.Ext(name)),
		})
		_ = f.Close()
		if err != nil {
			s.log.WithError(err).WithField("file", fh.Filename).Warn("upload failed")
			failed = append(failed, uploadError{FileName: fh.Filename, Error: err.Error()})
			continue
		}
		succeeded = append(succeeded, uploadResult{
			Path:     path.Join(dir, name),
			URL:      res.SecureURL,
			FileName: name,
		})
	}

	s.log.WithFields(logrus.Fields{"ok": len(succeeded), "failed": len(failed)}).Info("upload batch done")
	s.respond(w, http.StatusOK, map[string]interface{}{
		"success": succeeded,
		"failed":  failed,
	})
}
