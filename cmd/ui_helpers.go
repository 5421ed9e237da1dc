package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// startInlineSpinner starts a simple inline spinner animation on a single
// line. It displays rotating animation frames followed by the provided text,
// updating the same line in the terminal. The spinner runs in a separate
// goroutine and can be stopped by calling the returned function, which also
// clears the line.
func startInlineSpinner(w io.Writer, text string) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				line := fmt.Sprintf("%s %s", spinnerFrames[i%len(spinnerFrames)], text)
				// Clear the spinner line completely, then return
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", spinnerFrames[i%len(spinnerFrames)], text)
				i++
			}
		}
	}()
	return func() {
		close(stop)
		wg.Wait()
	}
}

// progressArea renders live fan-out progress while targets complete. It hides
// the cursor for the duration and removes itself when stopped.
type progressArea struct {
	area  *pterm.AreaPrinter
	label string
	total int
	done  atomic.Int32
	stop  chan struct{}
	wg    sync.WaitGroup
}

func startProgressArea(label string, total int) *progressArea {
	cursor.Hide()
	area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
	if err != nil {
		cursor.Show()
		return nil
	}

	p := &progressArea{area: area, label: label, total: total, stop: make(chan struct{})}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-ticker.C:
				i++
				frame := spinnerFrames[i%len(spinnerFrames)]
				area.Update(fmt.Sprintf("%s %s: %d/%d targets", frame, p.label, p.done.Load(), p.total))
			case <-p.stop:
				return
			}
		}
	}()
	return p
}

// Done marks one more target as settled.
func (p *progressArea) Done() {
	if p == nil {
		return
	}
	p.done.Add(1)
}

// Stop tears the area down and restores the cursor.
func (p *progressArea) Stop() {
	if p == nil {
		return
	}
	close(p.stop)
	p.wg.Wait()
	p.area.Stop()
	cursor.Show()
}

// confirm asks before a destructive action. It returns true only on an
// explicit yes.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
