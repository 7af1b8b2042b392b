// Package types holds small building blocks shared by long running parts
// of qlearn.
package types

import (
	"sync"

	"github.com/netrixframework/qlearn/log"
)

// Service is anything that runs in the background next to a training or
// evaluation run
type Service interface {
	// Name of the service
	Name() string
	// Start the service, returning once it is ready
	Start() error
	// Running to indicate if the service is running
	Running() bool
	// Stop the service
	Stop() error
	// QuitCh is closed once the service stops running
	QuitCh() <-chan struct{}
}

// BaseService keeps the running flag and quit channel of a Service
type BaseService struct {
	running bool
	o       *sync.Once
	lock    *sync.Mutex
	name    string
	quit    chan struct{}
	Logger  *log.Logger
}

// NewBaseService instantiates BaseService
func NewBaseService(name string, parentLogger *log.Logger) *BaseService {
	return &BaseService{
		lock:   new(sync.Mutex),
		name:   name,
		o:      new(sync.Once),
		quit:   make(chan struct{}),
		Logger: parentLogger.With(log.LogParams{"service": name}),
	}
}

// StartRunning sets the running flag
func (b *BaseService) StartRunning() {
	b.Logger.Debug("Starting service")
	b.lock.Lock()
	defer b.lock.Unlock()
	b.running = true
}

// StopRunning unsets the running flag and closes the quit channel. It can
// be called more than once.
func (b *BaseService) StopRunning() {
	b.Logger.Debug("Stopping service")
	b.lock.Lock()
	defer b.lock.Unlock()
	b.running = false
	b.o.Do(func() {
		close(b.quit)
	})
}

func (b *BaseService) Name() string {
	return b.name
}

func (b *BaseService) Running() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.running
}

func (b *BaseService) QuitCh() <-chan struct{} {
	return b.quit
}
