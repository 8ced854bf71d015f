// Package api serves the cabinet status and leaderboard over HTTP.
package api

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/samber/lo"

	"github.com/robotalks/reflex/pkg/arcade"
	"github.com/robotalks/reflex/pkg/framework"
	"github.com/robotalks/reflex/pkg/leaderboard"
)

// Cabinet provides the state shown by the API.
type Cabinet interface {
	Status() arcade.Status
	LastGame() *arcade.Game
}

// Standings provides the ranked records.
type Standings interface {
	Entries() []leaderboard.Record
}

// Config defines the HTTP listener.
type Config struct {
	Addr string
}

var defaultConfig = Config{}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Addr, "http", defaultConfig.Addr, "HTTP API listen address, empty to disable.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewServer creates a Server using the config.
func (c *Config) NewServer(cab Cabinet, scores Standings) *Server {
	return &Server{Addr: c.Addr, Cabinet: cab, Scores: scores}
}

// Server is the read-only HTTP API.
type Server struct {
	Addr    string
	Cabinet Cabinet
	Scores  Standings
}

// Entry is a leaderboard row.
type Entry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score uint16 `json:"score"`
}

// StatusReply is the reply of GET /status.
type StatusReply struct {
	arcade.Status
	LastGame *GameReply `json:"last_game_result,omitempty"`
}

// GameReply summarizes a finished game.
type GameReply struct {
	ID      string `json:"id"`
	Outcome string `json:"outcome"`
	Level   int    `json:"level"`
	Score   uint16 `json:"score"`
	Name    string `json:"name,omitempty"`
	Rank    int    `json:"rank"`
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/leaderboard", s.leaderboard)
	r.GET("/status", s.status)
	return r
}

func (s *Server) leaderboard(c *gin.Context) {
	entries := lo.Map(s.Scores.Entries(), func(r leaderboard.Record, i int) Entry {
		return Entry{Rank: i + 1, Name: r.Name.String(), Score: r.Score}
	})
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) status(c *gin.Context) {
	reply := StatusReply{Status: s.Cabinet.Status()}
	if g := s.Cabinet.LastGame(); g != nil {
		reply.LastGame = &GameReply{
			ID:      g.ID,
			Outcome: g.Result.Outcome.String(),
			Level:   g.Result.Level,
			Score:   g.Result.Score(),
			Rank:    g.Rank,
		}
		if g.Rank >= 0 {
			reply.LastGame.Name = g.Name.String()
		}
	}
	c.JSON(http.StatusOK, reply)
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	glog.Infof("http api on %s", s.Addr)
	return framework.RunWithContextCancel(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			glog.Warningf("http shutdown: %v", err)
		}
	}, func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}
