package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/loyalty-rewards-api/services"
)

type sequenced struct {
	session string
	seq     uint64
}

// beginSequence registers the request's seq with the sequencer. Requests without
// a session header or a valid seq are never stale.
func beginSequence(c *gin.Context) sequenced {
	s := sequenced{session: c.GetHeader(services.SessionHeader)}
	if raw := c.Query("seq"); raw != "" {
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			s.seq = n
		}
	}
	if seq := services.GetSearchSequencer(); seq != nil {
		seq.Begin(s.session, s.seq)
	}
	return s
}

func (s sequenced) stale() bool {
	seq := services.GetSearchSequencer()
	return seq != nil && seq.Stale(s.session, s.seq)
}

// respondSequenced writes a success envelope carrying seq and stale
func respondSequenced(c *gin.Context, s sequenced, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
		"seq":     s.seq,
		"stale":   s.stale(),
	})
}
