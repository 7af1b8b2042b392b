package apiserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/netrixframework/qlearn/env"
	"github.com/netrixframework/qlearn/log"
	"github.com/netrixframework/qlearn/report"
	"github.com/netrixframework/qlearn/rl"
)

type tableResponse struct {
	Key     string      `json:"key"`
	States  int         `json:"states"`
	Actions int         `json:"actions"`
	Rows    [][]float64 `json:"rows"`
	Policy  []int       `json:"policy"`
	Moves   []string    `json:"moves"`
}

func (srv *APIServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleSeries returns the reward and rolling series of the latest run
func (srv *APIServer) handleSeries(c *gin.Context) {
	c.JSON(http.StatusOK, srv.ctx.Recorder.Snapshot())
}

func (srv *APIServer) handleChart(c *gin.Context) {
	snapshot := srv.ctx.Recorder.Snapshot()
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderChart(c.Writer, srv.model.Key, snapshot.Rolling); err != nil {
		srv.Logger.WithError(err).Error("Failed to render chart")
		c.Error(err)
	}
}

// handleTable serves the persisted value table of the configured model
// together with its greedy policy
func (srv *APIServer) handleTable(c *gin.Context) {
	table, err := rl.LoadTable(srv.ctx.Store, srv.model.Key, srv.model.States, srv.model.Actions)
	if err != nil {
		srv.Logger.With(log.LogParams{"key": srv.model.Key}).WithError(err).Info("Could not load table")
		status := http.StatusInternalServerError
		if errors.Is(err, rl.ErrMissingModel) {
			status = http.StatusNotFound
		} else if errors.Is(err, rl.ErrCardinalityMismatch) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	policy := table.Policy()
	moves := make([]string, len(policy))
	for i, a := range policy {
		moves[i] = env.ActionName(a)
	}
	c.JSON(http.StatusOK, tableResponse{
		Key:     srv.model.Key,
		States:  srv.model.States,
		Actions: srv.model.Actions,
		Rows:    table.Rows(),
		Policy:  policy,
		Moves:   moves,
	})
}
