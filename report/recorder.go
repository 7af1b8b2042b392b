package report

import (
	"sync"

	"github.com/netrixframework/qlearn/rl"
)

// Snapshot is a copy of what a Recorder has seen so far
type Snapshot struct {
	Training bool      `json:"training"`
	Done     bool      `json:"done"`
	Error    string    `json:"error,omitempty"`
	Rewards  []float64 `json:"rewards"`
	Rolling  []float64 `json:"rolling"`
}

// Recorder collects the per episode success record and rolling sums of a
// run. It is safe to read while the run is in progress.
type Recorder struct {
	snapshot Snapshot
	lock     *sync.Mutex
}

var _ rl.Observer = &Recorder{}

// NewRecorder instantiates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{
		snapshot: Snapshot{
			Rewards: make([]float64, 0),
			Rolling: make([]float64, 0),
		},
		lock: new(sync.Mutex),
	}
}

func (r *Recorder) EpisodeDone(s rl.EpisodeStats) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if s.Episode == 0 {
		r.snapshot = Snapshot{Training: s.Training}
	}
	reward := 0.0
	if s.Success {
		reward = 1
	}
	r.snapshot.Rewards = append(r.snapshot.Rewards, reward)
	r.snapshot.Rolling = append(r.snapshot.Rolling, s.Rolling)
}

func (r *Recorder) RunDone(s rl.RunStats) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.snapshot.Done = true
	r.snapshot.Training = s.Training
	if s.Err != nil {
		r.snapshot.Error = s.Err.Error()
	}
	if s.Rolling != nil {
		r.snapshot.Rolling = append([]float64{}, s.Rolling...)
	}
}

// Snapshot returns a copy of the recorded series
func (r *Recorder) Snapshot() Snapshot {
	r.lock.Lock()
	defer r.lock.Unlock()
	s := r.snapshot
	s.Rewards = append(make([]float64, 0, len(s.Rewards)), s.Rewards...)
	s.Rolling = append(make([]float64, 0, len(s.Rolling)), s.Rolling...)
	return s
}
