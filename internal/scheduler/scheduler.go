// Package scheduler runs store mutations one at a time, in submission
// order, next to periodic maintenance tasks.
package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("scssls.scheduler")

var ErrStopped = errors.New("scheduler: stopped")

type Task struct {
	Name    string
	Execute func() error
}

type Scheduler struct {
	taskQueue       chan Task
	lowPriorityLock sync.Mutex
	stopChan        chan struct{}
	wg              sync.WaitGroup // queued tasks
	workers         sync.WaitGroup // scheduler goroutines

	mu      sync.RWMutex
	stopped bool
}

// NewScheduler creates a new Scheduler with the specified queue size
func NewScheduler(queueSize int) *Scheduler {
	return &Scheduler{
		taskQueue: make(chan Task, queueSize),
		stopChan:  make(chan struct{}),
	}
}

func run(task Task) {
	log.Debugf("executing %s", task.Name)
	if err := task.Execute(); err != nil {
		log.Errorf("%s: %s", task.Name, err)
	}
}

// RunScheduler starts the scheduler loop
func (s *Scheduler) RunScheduler() {
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		for {
			select {
			case task := <-s.taskQueue:
				run(task)
				s.wg.Done()
			case <-s.stopChan:
				// Drain what was accepted before the stop.
				for {
					select {
					case task := <-s.taskQueue:
						run(task)
						s.wg.Done()
					default:
						return
					}
				}
			}
		}
	}()
}

// SchedulePeriodicTask runs lowTask now and then every interval, skipping a
// run when the queue is full.
func (s *Scheduler) SchedulePeriodicTask(interval time.Duration, lowTask Task) {
	ticker := time.NewTicker(interval)
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		defer ticker.Stop()
		s.enqueueLow(lowTask)
		for {
			select {
			case <-ticker.C:
				s.enqueueLow(lowTask)
			case <-s.stopChan:
				return
			}
		}
	}()
}

func (s *Scheduler) enqueueLow(task Task) {
	s.lowPriorityLock.Lock()
	defer s.lowPriorityLock.Unlock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return
	}
	s.wg.Add(1)
	select {
	case s.taskQueue <- task:
		log.Debugf("scheduled %s", task.Name)
	default:
		s.wg.Done()
		log.Debugf("skipped scheduling %s, queue is full", task.Name)
	}
}

// ScheduleHighPriorityTask queues task, blocking while the queue is full.
func (s *Scheduler) ScheduleHighPriorityTask(task Task) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return ErrStopped
	}
	s.wg.Add(1)
	s.taskQueue <- task
	return nil
}

// Do queues fn and waits for it to run, returning its error.
func (s *Scheduler) Do(name string, fn func() error) error {
	done := make(chan error, 1)
	err := s.ScheduleHighPriorityTask(Task{Name: name, Execute: func() error {
		err := fn()
		done <- err
		return err
	}})
	if err != nil {
		return err
	}
	return <-done
}

// StopScheduler waits for all queued tasks to complete and stops the
// scheduler. Tasks submitted afterwards fail with ErrStopped.
func (s *Scheduler) StopScheduler() {
	log.Info("stopping scheduler")
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	s.workers.Wait()
	log.Info("scheduler stopped")
}
