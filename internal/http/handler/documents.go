package handler

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"settingsapi/internal/service"
)

const (
	documentsField      = "documents"
	profilePictureField = "profilePicture"
)

// openUploads opens every file header. The returned close func releases them all.
func openUploads(headers []*multipart.FileHeader) ([]service.Upload, func(), error) {
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)
		uploads = append(uploads, service.Upload{Filename: fh.Filename, Size: fh.Size, Content: f})
	}
	return uploads, closeAll, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// sendDownload streams a stored file as an attachment.
func sendDownload(c *fiber.Ctx, dl *service.Download) error {
	// Attachment guesses Content-Type from the extension; the stored type wins.
	c.Attachment(dl.Filename)
	if dl.MimeType != "" {
		c.Set(fiber.HeaderContentType, dl.MimeType)
	}
	size := int(dl.Size)
	if size <= 0 {
		size = -1
	}
	// fasthttp closes the stream once it has been sent.
	return c.SendStream(dl.Body, size)
}

// ListDocuments returns the caller's documents.
//
//	@Summary	List documents
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	json
//	@Param		userId	path		string	true	"User ID"
//	@Success	200		{object}	service.DocumentListResult
//	@Failure	403		{object}	errorPayload
//	@Router		/settings/{userId}/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.List(c.UserContext(), c.Params("userId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocuments accepts up to five files in the "documents" multipart field.
//
//	@Summary	Upload documents
//	@Tags		documents
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		userId		path		string	true	"User ID"
//	@Param		documents	formData	file	true	"Files (1-5, 10 MB each)"
//	@Param		description	formData	string	false	"Description applied to every file"
//	@Param		category	formData	string	false	"personal, business, legal or other"
//	@Success	201			{object}	map[string][]model.Document
//	@Failure	400			{object}	errorPayload
//	@Failure	500			{object}	errorPayload
//	@Router		/settings/{userId}/documents [post]
func UploadDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "UPLOAD_ERROR", "multipart form expected")
		}

		uploads, closeAll, err := openUploads(form.File[documentsField])
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "UPLOAD_ERROR", "cannot open uploaded file")
		}
		defer closeAll()

		docs, err := svc.Upload(c.UserContext(), c.Params("userId"), uploads, service.UploadMeta{
			Description: formValue(form, "description"),
			Category:    formValue(form, "category"),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"documents": docs})
	}
}

// DownloadDocument streams a document under its original filename.
//
//	@Summary	Download document
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	octet-stream
//	@Param		userId		path	string	true	"User ID"
//	@Param		documentId	path	string	true	"Document ID"
//	@Success	200
//	@Failure	404	{object}	errorPayload
//	@Router		/settings/{userId}/documents/{documentId}/download [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dl, err := svc.Download(c.UserContext(), c.Params("userId"), c.Params("documentId"))
		if err != nil {
			return respondError(c, err)
		}
		return sendDownload(c, dl)
	}
}

// GetDocumentURL returns a time-limited direct download URL.
//
//	@Summary	Presigned document URL
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	json
//	@Param		userId		path		string	true	"User ID"
//	@Param		documentId	path		string	true	"Document ID"
//	@Success	200			{object}	map[string]string
//	@Failure	404			{object}	errorPayload
//	@Router		/settings/{userId}/documents/{documentId}/url [get]
func GetDocumentURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.PresignDownload(c.UserContext(), c.Params("userId"), c.Params("documentId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"url": u})
	}
}

// DeleteDocument removes a document and its file.
//
//	@Summary	Delete document
//	@Tags		documents
//	@Security	BearerAuth
//	@Param		userId		path	string	true	"User ID"
//	@Param		documentId	path	string	true	"Document ID"
//	@Success	204
//	@Failure	404	{object}	errorPayload
//	@Router		/settings/{userId}/documents/{documentId} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("userId"), c.Params("documentId")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadProfilePicture replaces the caller's profile picture.
//
//	@Summary	Upload profile picture
//	@Tags		profile
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		userId			path		string	true	"User ID"
//	@Param		profilePicture	formData	file	true	"Image file"
//	@Success	200				{object}	model.Settings
//	@Failure	400				{object}	errorPayload
//	@Router		/settings/{userId}/profile-picture [post]
func UploadProfilePicture(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile(profilePictureField)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "UPLOAD_ERROR", "profilePicture file is required")
		}
		uploads, closeAll, err := openUploads([]*multipart.FileHeader{fh})
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "UPLOAD_ERROR", "cannot open uploaded file")
		}
		defer closeAll()

		s, err := svc.UploadProfilePicture(c.UserContext(), c.Params("userId"), uploads[0])
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(s)
	}
}

// GetProfilePicture streams the current profile picture.
//
//	@Summary	Download profile picture
//	@Tags		profile
//	@Security	BearerAuth
//	@Produce	image/png
//	@Param		userId	path	string	true	"User ID"
//	@Success	200
//	@Failure	404	{object}	errorPayload
//	@Router		/settings/{userId}/profile-picture [get]
func GetProfilePicture(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dl, err := svc.DownloadProfilePicture(c.UserContext(), c.Params("userId"))
		if err != nil {
			return respondError(c, err)
		}
		return sendDownload(c, dl)
	}
}
