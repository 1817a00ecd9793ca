package sim

import "log"

// LogDisplay stands in for the character LCD by logging each status line
type LogDisplay struct {
	Logger *log.Logger
}

// Show logs a status line
func (d *LogDisplay) Show(line string) {
	if d.Logger == nil {
		log.Printf("lcd: %s", line)
		return
	}
	d.Logger.Printf("lcd: %s", line)
}
