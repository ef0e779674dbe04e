package wrapper

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/saalfeldlab/n5-spark-launcher/pkg/logging"
)

// relaySignals keeps the launcher alive while the wrapper runs and passes
// SIGTERM and SIGHUP on to it. SIGINT is swallowed: a terminal delivers it to
// the whole foreground process group, so the wrapper already has it.
// The returned func stops relaying.
func relaySignals(pid int, logger *logging.Logger) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case sig := <-sigChan:
				s, ok := sig.(syscall.Signal)
				if !ok || s == syscall.SIGINT {
					continue
				}
				logger.Warn("relaying signal to wrapper", map[string]interface{}{
					"pid":    pid,
					"signal": SignalName(s),
				})
				if err := unix.Kill(pid, s); err != nil {
					logger.Warn("signal relay failed", map[string]interface{}{"error": err.Error()})
				}
			}
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
