package executor

import (
	"sync"

	"github.com/loomworks/loom/logger"
	"go.uber.org/zap"
)

type task func()

// pool services node invocations with a fixed set of workers shared
// across all executions. Submitting blocks when every worker is busy and
// the backlog is full, which is what bounds node parallelism.
type pool struct {
	name     string
	size     int
	taskChan chan task
	stop     chan struct{}
	wg       *sync.WaitGroup
}

func newPool(name string, size int, wg *sync.WaitGroup) *pool {
	if size < 1 {
		size = 1
	}
	return &pool{
		name:     name,
		size:     size,
		taskChan: make(chan task, size),
		stop:     make(chan struct{}),
		wg:       wg,
	}
}

func (p *pool) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case t := <-p.taskChan:
					t()
				case <-p.stop:
					return
				}
			}
		}()
	}
}

func (p *pool) Submit(t task) {
	p.taskChan <- t
}

func (p *pool) Stop() {
	logger.Info("stopping worker pool", zap.String("pool", p.name))
	close(p.stop)
}
