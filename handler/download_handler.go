package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KRIPAVERMA/mediabotbackend/auth"
	"github.com/KRIPAVERMA/mediabotbackend/backend"
	"github.com/KRIPAVERMA/mediabotbackend/model"
	"github.com/KRIPAVERMA/mediabotbackend/service"
	"github.com/KRIPAVERMA/mediabotbackend/store"
)

// Prober answers the metadata endpoint without creating a job.
type Prober interface {
	Probe(ctx context.Context, url string) (backend.MediaInfo, error)
}

type DownloadHandler struct {
	orchestrator *service.Orchestrator
	store        *store.JobStore
	auth         auth.Authenticator
	prober       Prober
	downloadDir  string
	logger       *zap.Logger
}

func NewDownloadHandler(
	orchestrator *service.Orchestrator,
	jobs *store.JobStore,
	authenticator auth.Authenticator,
	prober Prober,
	downloadDir string,
	logger *zap.Logger,
) *DownloadHandler {
	return &DownloadHandler{
		orchestrator: orchestrator,
		store:        jobs,
		auth:         authenticator,
		prober:       prober,
		downloadDir:  downloadDir,
		logger:       logger,
	}
}

// Register wires the API routes. Static segments are registered before the
// :jobId wildcard so the debug and info paths stay reachable.
func (h *DownloadHandler) Register(r *gin.Engine) {
	api := r.Group("/api")
	api.POST("/download", h.CreateDownload)
	api.GET("/download/info", h.GetInfo)
	api.GET("/download/debug/jobs", h.DebugJobs)
	api.GET("/download/:jobId", h.GetDownload)
	api.GET("/download/:jobId/file", h.GetDownloadFile)
}

type createDownloadRequest struct {
	URL  string `json:"url"`
	Mode string `json:"mode" binding:"required"`
}

// CreateDownload accepts a download request and returns the job id
// immediately; extraction runs in the background.
func (h *DownloadHandler) CreateDownload(c *gin.Context) {
	var req createDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "body must be JSON with url and mode; valid modes: " + model.ModeList(),
		})
		return
	}

	// Identity is best-effort; anonymous downloads are always allowed.
	userID, _ := h.auth.Authenticate(c.GetHeader("Authorization"))

	jobID, err := h.orchestrator.Submit(req.URL, req.Mode, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"jobId": jobID})
}

// GetDownload reports the job's current status for polling clients.
func (h *DownloadHandler) GetDownload(c *gin.Context) {
	job, err := h.store.Get(c.Param("jobId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	resp := gin.H{
		"status":   job.Status,
		"progress": job.Progress,
		"format":   job.Format,
	}
	if job.Status == model.StatusDone {
		resp["fileSize"] = job.OutputSize
	}
	if job.Status == model.StatusError {
		resp["error"] = job.ErrorKind.Message()
		if job.ErrorDetail != "" {
			resp["errorDetail"] = job.ErrorDetail
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetDownloadFile streams the finished file once. After the body is fully
// written the job and its file are deleted; a re-fetch gets 404.
func (h *DownloadHandler) GetDownloadFile(c *gin.Context) {
	id := c.Param("jobId")
	job, err := h.store.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	if job.Status != model.StatusDone {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "file not ready",
			"status": job.Status,
		})
		return
	}

	if _, err := os.Stat(job.OutputFile); err != nil {
		// Done but reaped from disk before retrieval: resubmit.
		c.JSON(http.StatusGone, gin.H{"error": "file expired, submit a new download"})
		return
	}

	c.Header("Content-Type", job.Format.ContentType())
	c.FileAttachment(job.OutputFile, filepath.Base(job.OutputFile))

	// FileAttachment returns after the body is written; only then may the
	// file and the job record go away.
	h.store.FinalizeDelivery(id)
	h.logger.Info("file delivered", zap.String("job", id))
}

// GetInfo returns title/duration/thumbnail for a URL without downloading.
func (h *DownloadHandler) GetInfo(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	info, err := h.prober.Probe(c.Request.Context(), url)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not fetch media info"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"title":     info.Title,
		"duration":  info.Duration,
		"thumbnail": info.Thumbnail,
	})
}

// DebugJobs dumps the in-memory job table and the downloads directory.
func (h *DownloadHandler) DebugJobs(c *gin.Context) {
	var files []string
	if entries, err := os.ReadDir(h.downloadDir); err == nil {
		for _, entry := range entries {
			files = append(files, entry.Name())
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs":  h.store.Snapshot(),
		"files": files,
	})
}
