package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/doc-summarizer/internal/domain/docchat"
)

// Chat answers a question about a pasted or previously uploaded document.
func (h *Handler) Chat(c *gin.Context) {
	var req docchat.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	req.UserID = userID(c)
	resp, err := h.chatSvc.Ask(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SelectContext returns the narrowed context for a question without answering it.
func (h *Handler) SelectContext(c *gin.Context) {
	var req docchat.ContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	resp, err := h.chatSvc.SelectContext(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UploadDocument stores a file so later chats can reference it by id.
func (h *Handler) UploadDocument(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "file is required", err))
		return
	}
	file, httpErr := h.readUpload(fileHeader)
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}
	doc, err := h.chatSvc.Upload(c.Request.Context(), claims.UserID, docchat.UploadRequest{
		FileName: fileHeader.Filename,
		Title:    c.PostForm("title"),
		MimeType: file.mimeType,
		Content:  file.data,
	})
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// GetDocument returns a single document's metadata.
func (h *Handler) GetDocument(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid document id", err))
		return
	}
	doc, err := h.chatSvc.GetDocument(c.Request.Context(), claims.UserID, id)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, doc)
}
