package chat

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"agenthub_back/httperr"
	"agenthub_back/models"
	"agenthub_back/pagination"
	"agenthub_back/storage"
)

const (
	defaultConversationsPageSize = 10
	defaultMessagesPageSize      = 20
)

// Module owns the chat proxy endpoint and the conversation and message
// listings.
type Module struct {
	db     *gorm.DB
	store  *Store
	client *ProxyClient
}

// RegisterRoutes opens the database, migrates the conversation tables and
// mounts the chat endpoints.
func RegisterRoutes(router *gin.Engine) (*Module, error) {
	db, err := storage.OpenFromEnv()
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Conversation{}, &Message{}); err != nil {
		return nil, err
	}

	module := &Module{db: db, store: NewStore(db), client: NewProxyClientFromEnv()}
	module.mountRoutes(router)
	return module, nil
}

func (m *Module) mountRoutes(router *gin.Engine) {
	router.POST("/agents/:id/chat", m.handleChat)
	router.GET("/agents/:id/conversations", m.handleListConversations)
	router.GET("/conversations/:conversation_id/messages", m.handleListMessages)
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

func parseAgentID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		return 0, httperr.InvalidInput("invalid agent id")
	}
	return id, nil
}

// handleChat runs one full proxy turn: resolve agent and conversation,
// commit the user message, replay the ordered history to the model, then
// persist the reply. A proxy failure leaves the user message in place and
// writes nothing else.
func (m *Module) handleChat(c *gin.Context) {
	agentID, err := parseAgentID(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.InvalidInput("invalid request payload"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		httperr.Respond(c, httperr.InvalidInput("message is required"))
		return
	}

	ctx := c.Request.Context()

	agent, err := m.store.FindAgent(ctx, agentID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	// Resolve the bound model before any write so an inactive model fails
	// the turn without leaving a half-recorded exchange behind.
	model, err := m.store.FindModel(ctx, agent.ModelID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	if model.Status != models.StatusActive {
		httperr.Respond(c, httperr.ModelInactive("model %q is inactive", model.Name))
		return
	}

	var conv Conversation
	if handle := strings.TrimSpace(req.ConversationID); handle == "" {
		conv, err = m.store.CreateConversation(ctx, agent.ID, uuid.NewString())
	} else {
		conv, err = m.store.FindConversation(ctx, agent.ID, handle)
	}
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	if _, err := m.store.AppendUserMessage(ctx, conv, req.Message); err != nil {
		httperr.Respond(c, err)
		return
	}

	history, err := m.store.History(ctx, conv)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	reply, err := m.client.Invoke(ctx, model, history)
	if err != nil {
		log.Printf("chat: proxy call for agent %d failed: %v", agent.ID, err)
		httperr.Respond(c, err)
		return
	}

	if _, err := m.store.CompleteTurn(ctx, conv, reply); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Chat completed successfully",
		"conversation_id": conv.ConversationID,
		"response":        reply,
	})
}

func (m *Module) handleListConversations(c *gin.Context) {
	agentID, err := parseAgentID(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	if _, err := m.store.FindAgent(c.Request.Context(), agentID); err != nil {
		httperr.Respond(c, err)
		return
	}

	params := pagination.Parse(c, defaultConversationsPageSize)

	items, total, err := m.store.ListConversations(c.Request.Context(), agentID, params.Offset(), params.PerPage)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations": items,
		"page":          params.Page,
		"per_page":      params.PerPage,
		"total":         total,
		"pages":         params.Pages(total),
	})
}

func (m *Module) handleListMessages(c *gin.Context) {
	handle := strings.TrimSpace(c.Param("conversation_id"))
	if handle == "" {
		httperr.Respond(c, httperr.InvalidInput("invalid conversation id"))
		return
	}

	conv, err := m.store.FindConversationByHandle(c.Request.Context(), handle)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	params := pagination.Parse(c, defaultMessagesPageSize)

	items, total, err := m.store.ListMessages(c.Request.Context(), conv, params.Offset(), params.PerPage)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": items,
		"page":     params.Page,
		"per_page": params.PerPage,
		"total":    total,
		"pages":    params.Pages(total),
	})
}
