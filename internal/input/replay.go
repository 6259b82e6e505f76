package input

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type yamlReplay struct {
	QuitAt int         `yaml:"quit_at"`
	Events []yamlEvent `yaml:"events"`
}

type yamlEvent struct {
	Frame   int      `yaml:"frame"`
	Player  int      `yaml:"player"`
	Press   []string `yaml:"press"`
	Release []string `yaml:"release"`
}

type replayEvent struct {
	frame  int
	player int
	action Action
	down   bool
}

// ReplayPoller feeds a recorded key sequence frame by frame. Held actions
// persist until released. Quit is raised at QuitAt (0 means never).
type ReplayPoller struct {
	events []replayEvent
	next   int
	frame  int
	QuitAt int
}

// LoadReplay reads a replay YAML file.
func LoadReplay(path string) (*ReplayPoller, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replay %s: %w", path, err)
	}
	p, err := ParseReplay(raw)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", path, err)
	}
	return p, nil
}

// ParseReplay decodes replay YAML.
func ParseReplay(raw []byte) (*ReplayPoller, error) {
	var f yamlReplay
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse replay: %w", err)
	}
	p := &ReplayPoller{QuitAt: f.QuitAt}
	for i, ev := range f.Events {
		if ev.Frame < 0 {
			return nil, fmt.Errorf("event %d: negative frame %d", i, ev.Frame)
		}
		if ev.Player < 0 || ev.Player >= MaxPlayers {
			return nil, fmt.Errorf("event %d: player %d out of range", i, ev.Player)
		}
		for _, name := range ev.Press {
			a, err := ParseAction(name)
			if err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
			p.events = append(p.events, replayEvent{ev.Frame, ev.Player, a, true})
		}
		for _, name := range ev.Release {
			a, err := ParseAction(name)
			if err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
			p.events = append(p.events, replayEvent{ev.Frame, ev.Player, a, false})
		}
	}
	sort.SliceStable(p.events, func(i, j int) bool {
		return p.events[i].frame < p.events[j].frame
	})
	return p, nil
}

// Frame returns the number of polls so far.
func (p *ReplayPoller) Frame() int { return p.frame }

// Done reports whether every event has been applied.
func (p *ReplayPoller) Done() bool { return p.next >= len(p.events) }

func (p *ReplayPoller) Poll(s *State) {
	for p.next < len(p.events) && p.events[p.next].frame <= p.frame {
		ev := p.events[p.next]
		s.Set(ev.player, ev.action, ev.down)
		p.next++
	}
	if p.QuitAt > 0 && p.frame >= p.QuitAt {
		s.Quit = true
	}
	p.frame++
}
