package logger

import (
	"fmt"
	"time"
)

type Spinner struct {
	Frames  []string
	Message string
	Console *Console
	stop    chan struct{}
	stopped chan struct{}
	quiet   bool
}

func (s *Spinner) Start() {
	if s.quiet {
		close(s.stopped)
		return
	}

	go func() {
		defer close(s.stopped)

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			fmt.Fprintf(s.Console.out, "\r%s %s ", s.Frames[i%len(s.Frames)], s.Message)
			select {
			case <-s.stop:
				fmt.Fprint(s.Console.out, "\r")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the animation and waits for the last frame to be cleared
// before reporting, so the report line is never overdrawn.
func (s *Spinner) Stop(success bool, message string) {
	close(s.stop)
	<-s.stopped

	if success {
		s.Console.Success("%s", message)
	} else {
		s.Console.Error("%s", message)
	}
}
