// Package service is the REST surface of the sync daemon. Sync endpoints
// accept a trigger, hand the work to the dispatcher, and answer immediately;
// the contact endpoints expose the local records for operators.
package service

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/crmbridge/contacts-sync/internal/dispatch"
	"gitlab.com/crmbridge/contacts-sync/internal/integration"
)

// Server bundles the REST handlers and their collaborators.
type Server struct {
	syncer     *integration.Service
	store      integration.ContactStore
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

// NewServer creates the REST layer.
func NewServer(syncer *integration.Service, store integration.ContactStore, dispatcher *dispatch.Dispatcher, logger *zap.Logger) *Server {
	return &Server{syncer: syncer, store: store, dispatcher: dispatcher, logger: logger}
}

// SetupHttpRouter initializes the REST API router and registers all
// endpoints.
func (s *Server) SetupHttpRouter() *gin.Engine {
	var router *gin.Engine
	if strings.EqualFold(os.Getenv("GIN_LOGGING"), "off") {
		router = gin.New()
	} else {
		router = gin.Default()
	}
	router.GET("/healthz", s.health)
	router.GET("/contacts", s.findContacts)
	router.GET("/contacts/:id", s.findContactByID)
	router.POST("/contacts/:id/push", s.pushContact)
	router.POST("/sync/users/:externalId", s.syncUser)
	return router
}

// health answers 200 as long as the process is up.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// findContacts responds with the list of all contacts as JSON. With the
// 'external_id' URL parameter the result is narrowed to the single contact
// carrying that external id.
//
// Example REST API calls:
//
//	> curl "http://localhost:8080/contacts"
//	> curl "http://localhost:8080/contacts?external_id=7"
func (s *Server) findContacts(c *gin.Context) {
	if externalId := c.Query("external_id"); externalId != "" {
		contact, err := s.store.FindByExternalId(c.Request.Context(), externalId)
		if errors.Is(err, integration.ErrContactNotFound) {
			c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
			return
		}
		if err != nil {
			s.logger.Error("contact lookup failed", zap.Error(err))
			c.IndentedJSON(http.StatusInternalServerError, gin.H{"message": "store failure"})
			return
		}
		c.IndentedJSON(http.StatusOK, contact)
		return
	}

	contacts, err := s.store.FindAll(c.Request.Context())
	if err != nil {
		s.logger.Error("contact listing failed", zap.Error(err))
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"message": "store failure"})
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// findContactByID locates the contact whose ID value matches the id
// parameter of the request URL.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/56"
func (s *Server) findContactByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return
	}

	contact, err := s.store.FindById(c.Request.Context(), id)
	if errors.Is(err, integration.ErrContactNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	if err != nil {
		s.logger.Error("contact lookup failed", zap.Int64("contact_id", id), zap.Error(err))
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"message": "store failure"})
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// syncUser triggers an inbound sync for the external id in the request URL.
// The sync runs in the background; the request is answered with 202 and the
// job id as soon as the work is enqueued.
//
// Example REST API call:
//
//	> curl http://localhost:8080/sync/users/7 --request "POST"
func (s *Server) syncUser(c *gin.Context) {
	externalId := c.Param("externalId")
	if strings.TrimSpace(externalId) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "empty external id"})
		return
	}

	jobId, err := s.dispatcher.Submit("sync-inbound", func(ctx context.Context) error {
		return s.syncer.SyncInbound(ctx, externalId)
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusAccepted, gin.H{"job_id": jobId.String()})
}

// pushContact triggers an outbound push for the contact id in the request
// URL. Like syncUser it only enqueues the work.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56/push --request "POST"
func (s *Server) pushContact(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return
	}

	jobId, err := s.dispatcher.Submit("push-outbound", func(ctx context.Context) error {
		return s.syncer.PushOutbound(ctx, id)
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusAccepted, gin.H{"job_id": jobId.String()})
}
