// Package sh is the maintenance shell for leaderboard images.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
	"github.com/samber/lo"

	"github.com/robotalks/reflex/pkg/leaderboard"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell
	Image *Image
}

const (
	shellKey   = "$shell"
	dumpLength = 64
)

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&ScoresCmd,
		&RecordCmd,
		&DumpCmd,
		&WipeCmd,
	}
)

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a shell over an opened image.
func New(img *Image) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
		Image:       img,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt("reflex > ")
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Run processes args as one command, or runs interactively without
// args.
func (s *Shell) Run(args ...string) error {
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if !s.Interactive {
		return fmt.Errorf("command expected")
	}
	s.Shell.Run()
	return nil
}

func (s *Shell) printJSON(c *ishell.Context, v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

type scoreRow struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score uint16 `json:"score"`
}

var (
	// ScoresCmd lists the leaderboard.
	ScoresCmd = ishell.Cmd{
		Name:    "scores",
		Aliases: []string{"ls"},
		Help:    "list the leaderboard",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			rows := lo.Map(s.Image.Scores.Entries(), func(r leaderboard.Record, i int) scoreRow {
				return scoreRow{Rank: i + 1, Name: r.Name.String(), Score: r.Score}
			})
			if s.OutputJSON {
				s.printJSON(c, rows)
				return
			}
			if len(rows) == 0 {
				c.Println("No scores")
				return
			}
			for _, r := range rows {
				c.Printf("%2d. %s %5d\n", r.Rank, r.Name, r.Score)
			}
		},
	}

	// RecordCmd records a score.
	RecordCmd = ishell.Cmd{
		Name: "record",
		Help: "NAME SCORE",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("usage: record NAME SCORE"))
				return
			}
			rank, err := ShellFrom(c).Image.Record(context.Background(), c.Args[0], c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			if rank < 0 {
				c.Println("Not ranked")
				return
			}
			c.Printf("Ranked %d\n", rank+1)
		},
	}

	// DumpCmd prints raw image bytes.
	DumpCmd = ishell.Cmd{
		Name: "dump",
		Help: "ADDR [LEN]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 || len(c.Args) > 2 {
				c.Err(fmt.Errorf("usage: dump ADDR [LEN]"))
				return
			}
			addr, err := ParseAddr(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			n := dumpLength
			if len(c.Args) == 2 {
				if n, err = strconv.Atoi(c.Args[1]); err != nil || n <= 0 {
					c.Err(fmt.Errorf("invalid length %q", c.Args[1]))
					return
				}
			}
			c.Print(ShellFrom(c).Image.Dump(addr, n))
		},
	}

	// WipeCmd clears the leaderboard.
	WipeCmd = ishell.Cmd{
		Name: "wipe",
		Help: "clear the leaderboard",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if s.Interactive && !confirm(c) {
				return
			}
			if err := s.Image.Scores.Wipe(context.Background()); err != nil {
				c.Err(err)
				return
			}
			glog.Info("leaderboard wiped")
			c.Println("OK")
		},
	}
)

func confirm(c *ishell.Context) bool {
	c.Print("Wipe all scores? [y/N] ")
	answer := c.ReadLine()
	return answer == "y" || answer == "Y"
}
