package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/components/document"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	loaderfile "github.com/cloudwego/eino-ext/components/document/loader/file"

	"meetrecap/internal/service/mail"
	"meetrecap/internal/service/summary"
)

// Handler wires HTTP routes to the summary orchestrator and the email
// dispatcher.
type Handler struct {
	summaries  *summary.Service
	dispatcher *mail.Dispatcher
	uploadDir  string
	maxUpload  int64
}

// NewHandler constructs a Handler instance.
func NewHandler(summaries *summary.Service, dispatcher *mail.Dispatcher, uploadDir string, maxUploadBytes int64) *Handler {
	return &Handler{
		summaries:  summaries,
		dispatcher: dispatcher,
		uploadDir:  uploadDir,
		maxUpload:  maxUploadBytes,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/transcripts", h.createTranscript)
	api.POST("/transcripts/upload", h.uploadTranscript)
	api.GET("/transcripts/:id", h.getTranscript)
	api.GET("/transcripts/:id/summaries", h.listTranscriptSummaries)
	api.POST("/summaries", h.createSummary)
	api.GET("/summaries/:id", h.getSummary)
	api.PATCH("/summaries/:id", h.editSummary)
	api.GET("/summaries/:id/shares", h.listSummaryShares)
	api.POST("/email/send", h.sendEmail)
}

func (h *Handler) createTranscript(c *gin.Context) {
	var req struct {
		Content  string `json:"content"`
		Filename string `json:"filename"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	transcript, err := h.summaries.CreateTranscript(req.Content, req.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, transcript)
}

func (h *Handler) uploadTranscript(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(h.maxUpload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	filename := filepath.Base(file.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".txt") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .txt transcripts are allowed"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create directory failed"})
		return
	}
	destPath := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s", uuid.New().String(), filename))
	if err := c.SaveUploadedFile(file, destPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save file failed"})
		return
	}

	ctx := c.Request.Context()
	loader, err := loaderfile.NewFileLoader(ctx, &loaderfile.FileLoaderConfig{UseNameAsID: true})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "init file loader failed"})
		return
	}
	docs, err := loader.Load(ctx, document.Source{URI: destPath})
	if err != nil || len(docs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read transcript file"})
		return
	}

	transcript, err := h.summaries.CreateTranscript(docs[0].Content, filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, transcript)
}

func (h *Handler) getTranscript(c *gin.Context) {
	transcript, ok := h.summaries.GetTranscript(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "transcript not found"})
		return
	}
	c.JSON(http.StatusOK, transcript)
}

func (h *Handler) listTranscriptSummaries(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.summaries.GetTranscript(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "transcript not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": h.summaries.ListByTranscript(id)})
}

func (h *Handler) createSummary(c *gin.Context) {
	var req struct {
		TranscriptID string `json:"transcriptId"`
		Prompt       string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sum, err := h.summaries.Create(c.Request.Context(), req.TranscriptID, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, summary.ErrMissingField):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, summary.ErrTranscriptNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "transcript not found"})
		default:
			// ai.ErrNoProviderConfigured and ai.ErrAllProvidersFailed both
			// land here; their messages already tell the two cases apart.
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, sum)
}

func (h *Handler) getSummary(c *gin.Context) {
	sum, ok := h.summaries.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "summary not found"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) editSummary(c *gin.Context) {
	var req struct {
		EditedContent *string `json:"editedContent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "editedContent must be a string"})
		return
	}
	if req.EditedContent == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "editedContent is required"})
		return
	}
	sum, err := h.summaries.Edit(c.Param("id"), *req.EditedContent)
	if err != nil {
		if errors.Is(err, summary.ErrSummaryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "summary not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) listSummaryShares(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.summaries.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "summary not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shares": h.dispatcher.SharesBySummary(id)})
}

func (h *Handler) sendEmail(c *gin.Context) {
	var req struct {
		SummaryID         string          `json:"summaryId"`
		Recipients        json.RawMessage `json:"recipients"`
		Subject           string          `json:"subject"`
		Message           string          `json:"message"`
		IncludeTranscript bool            `json:"includeTranscript"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	recipients, err := parseRecipients(req.Recipients)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	share, err := h.dispatcher.SendSummary(c.Request.Context(), req.SummaryID, recipients, req.Subject, req.Message, req.IncludeTranscript)
	if err != nil {
		switch {
		case errors.Is(err, summary.ErrSummaryNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "summary not found"})
		case errors.Is(err, summary.ErrTranscriptNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "transcript not found"})
		case errors.Is(err, mail.ErrInvalidRecipients):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, share)
}

// parseRecipients accepts either a JSON array of addresses or, for clients
// that serialize the list themselves, a JSON string containing one.
func parseRecipients(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &list); err == nil {
			return list, nil
		}
	}
	return nil, errors.New("recipients must be a JSON array of email addresses")
}
