package handlers

import (
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"redsocial/internal/storage"
)

// formUploads opens every file sent under field. The returned closer must be
// called once the uploads have been consumed.
func formUploads(c *gin.Context, field string) ([]storage.Upload, func(), error) {
	noop := func() {}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, nil
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, noop, nil
	}

	uploads := make([]storage.Upload, 0, len(headers))
	files := make([]io.Closer, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, noop, badRequest(err)
		}
		files = append(files, f)
		uploads = append(uploads, uploadFrom(h, f))
	}
	return uploads, closeAll, nil
}

func uploadFrom(h *multipart.FileHeader, f multipart.File) storage.Upload {
	return storage.Upload{
		Filename:    h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Size:        h.Size,
		Body:        f,
	}
}
