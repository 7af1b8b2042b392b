package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/gosuri/uilive"
	"github.com/netrixframework/qlearn/rl"
)

// Progress keeps a single live line on the terminal with the state of the
// current run
type Progress struct {
	writer *uilive.Writer
	total  int
	every  int
	lock   *sync.Mutex
}

var _ rl.Observer = &Progress{}

// NewProgress creates a Progress for a run of total episodes. The line is
// refreshed roughly two hundred times over the run.
func NewProgress(out io.Writer, total int) *Progress {
	writer := uilive.New()
	writer.Out = out
	every := total / 200
	if every < 1 {
		every = 1
	}
	return &Progress{
		writer: writer,
		total:  total,
		every:  every,
		lock:   new(sync.Mutex),
	}
}

func (p *Progress) EpisodeDone(s rl.EpisodeStats) {
	if (s.Episode+1)%p.every != 0 && s.Episode+1 != p.total {
		return
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	fmt.Fprintf(p.writer, "[%s] episode %d/%d epsilon=%.5f rolling=%.0f\n",
		mode(s.Training), s.Episode+1, p.total, s.Epsilon, s.Rolling)
	p.writer.Flush()
}

func (p *Progress) RunDone(s rl.RunStats) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if s.Err != nil {
		fmt.Fprintf(p.writer, "[%s] failed: %s\n", mode(s.Training), s.Err)
	} else {
		fmt.Fprintf(p.writer, "[%s] done %d episodes, %d successes\n", mode(s.Training), s.Episodes, s.Successes)
	}
	p.writer.Flush()
}

func mode(training bool) string {
	if training {
		return "train"
	}
	return "eval"
}
