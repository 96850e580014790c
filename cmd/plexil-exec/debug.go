package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/taless474/plexil1-sub000/internal/logger"
	"github.com/taless474/plexil1-sub000/pkg/exec"
	"github.com/taless474/plexil1-sub000/pkg/librarystore"
	"github.com/taless474/plexil1-sub000/pkg/plan"
)

type nodeView struct {
	ID       string      `json:"id"`
	Variant  string      `json:"variant"`
	State    string      `json:"state"`
	Outcome  string      `json:"outcome"`
	Failure  string      `json:"failure"`
	Children []*nodeView `json:"children,omitempty"`
}

func toNodeView(n *plan.Node) *nodeView {
	v := &nodeView{
		ID:      n.ID,
		Variant: n.Variant.String(),
		State:   n.State.String(),
		Outcome: n.Outcome.String(),
		Failure: n.Failure.String(),
	}
	for _, c := range n.Children {
		v.Children = append(v.Children, toNodeView(c))
	}
	return v
}

func findNode(roots []*plan.Node, id string) *plan.Node {
	var search func(n *plan.Node) *plan.Node
	search = func(n *plan.Node) *plan.Node {
		if n.ID == id {
			return n
		}
		for _, c := range n.Children {
			if found := search(c); found != nil {
				return found
			}
		}
		return nil
	}
	for _, r := range roots {
		if found := search(r); found != nil {
			return found
		}
	}
	return nil
}

// conflictView mirrors exec.ConflictRecord for JSON rendering.
type conflictView struct {
	WinnerNodeID string `json:"winner_node_id"`
	LoserNodeID  string `json:"loser_node_id"`
	Priority     int    `json:"priority"`
	Tie          bool   `json:"tie"`
}

// stepStream fans step-complete notifications out to connected debug
// console websocket clients.
type stepStream struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func newStepStream() *stepStream {
	return &stepStream{clients: make(map[*websocket.Conn]chan []byte)}
}

func (s *stepStream) add(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, 16)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()
	return ch
}

func (s *stepStream) remove(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
}

// OnStepComplete implements exec.StepListener, broadcasting a compact
// transition summary to every connected debug console client.
func (s *stepStream) OnStepComplete(transitions []exec.TransitionRecord, assignments []exec.AssignmentRecord) {
	if len(transitions) == 0 && len(assignments) == 0 {
		return
	}
	payload := gin.H{"transitions": transitions, "assignments": assignments}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, ch := range s.clients {
		select {
		case ch <- data:
		default:
			delete(s.clients, conn)
		}
	}
}

func registerDebugRoutes(router *gin.Engine, e *exec.Exec, upgrader websocket.Upgrader, log *logger.Logger) {
	stream := newStepStream()
	e.AddStepListener(stream)

	router.GET("/nodes", func(c *gin.Context) {
		roots := e.Roots()
		views := make([]*nodeView, 0, len(roots))
		for _, r := range roots {
			views = append(views, toNodeView(r))
		}
		c.JSON(http.StatusOK, gin.H{"exec_id": e.ID(), "cycle": e.Cycle(), "roots": views})
	})

	router.GET("/nodes/:id", func(c *gin.Context) {
		n := findNode(e.Roots(), c.Param("id"))
		if n == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
			return
		}
		c.JSON(http.StatusOK, toNodeView(n))
	})

	router.GET("/conflicts", func(c *gin.Context) {
		records := e.LastConflicts()
		views := make([]conflictView, 0, len(records))
		for _, r := range records {
			views = append(views, conflictView{
				WinnerNodeID: r.WinnerNodeID,
				LoserNodeID:  r.LoserNodeID,
				Priority:     r.Priority,
				Tie:          r.Tie,
			})
		}
		c.JSON(http.StatusOK, gin.H{"conflicts": views})
	})

	router.GET("/cycle", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"cycle": e.Cycle(), "stopped": e.Stopped()})
	})

	router.GET("/stream", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		ch := stream.add(conn)
		defer stream.remove(conn)

		for data := range ch {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	})
}

func registerLibraryRoutes(router *gin.Engine, store *librarystore.Store) {
	lib := router.Group("/library")

	lib.GET("/:name", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		def, err := store.GetLibraryNode(ctx, c.Param("name"))
		if err == librarystore.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "library node not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json", def)
	})

	lib.GET("", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		names, err := store.ListLibraryNodeNames(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"names": names})
	})

	lib.PUT("/:name", func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := store.AddLibraryNode(ctx, c.Param("name"), body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})
}
