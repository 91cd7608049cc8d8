// Package tui provides the live Bubble Tea statistics view for stashstat.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/stashstat/internal/model"
	"github.com/theirongolddev/stashstat/internal/tui/theme"
)

// Computer runs one statistics request. *pipeline.Engine satisfies it.
type Computer interface {
	Compute(ctx context.Context, req model.StatsRequest) model.StatsResult
}

// ResultMsg is sent when a computation finishes.
type ResultMsg struct {
	Request model.StatsRequest
	Result  model.StatsResult
	Took    time.Duration
}

type refreshTickMsg struct{}

// App is the root Bubble Tea model.
type App struct {
	engine   Computer
	req      model.StatsRequest
	currency string

	result      model.StatsResult
	loaded      bool
	computing   bool
	lastRefresh time.Time
	took        time.Duration

	refreshInterval time.Duration

	width    int
	height   int
	showHelp bool

	spinner spinner.Model
	now     func() time.Time
}

const (
	minTerminalWidth = 60
	maxContentWidth  = 140
)

// NewApp creates a watch view that recomputes req every refreshInterval.
func NewApp(engine Computer, req model.StatsRequest, refreshInterval time.Duration, currency string) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	if refreshInterval < time.Second {
		refreshInterval = 5 * time.Second
	}
	if currency == "" {
		currency = "$"
	}

	return App{
		engine:          engine,
		req:             req,
		currency:        currency,
		refreshInterval: refreshInterval,
		spinner:         sp,
		now:             time.Now,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		computeCmd(a.engine, a.req),
		refreshTickCmd(a.refreshInterval),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case ResultMsg:
		// Drop results for a request the user has already moved away from.
		if msg.Request != a.req {
			return a, nil
		}
		a.result = msg.Result
		a.took = msg.Took
		a.loaded = true
		a.computing = false
		a.lastRefresh = a.now()
		return a, nil

	case refreshTickMsg:
		cmds := []tea.Cmd{refreshTickCmd(a.refreshInterval)}
		if !a.computing {
			a.computing = true
			cmds = append(cmds, computeCmd(a.engine, a.req))
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" || key == "q" {
		return a, tea.Quit
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "?":
		a.showHelp = true
		return a, nil
	case "m":
		a.req.Mode = next(model.Modes, a.req.Mode)
	case "M":
		a.req.Mode = prev(model.Modes, a.req.Mode)
	case "p", "right":
		a.req.Period = next(model.Periods, a.req.Period)
	case "P", "left":
		a.req.Period = prev(model.Periods, a.req.Period)
	case "s":
		a.req.Scope = next(model.Scopes, a.req.Scope)
	case "S":
		a.req.Scope = prev(model.Scopes, a.req.Scope)
	case "r":
	default:
		return a, nil
	}

	a.computing = true
	return a, computeCmd(a.engine, a.req)
}

// Request returns the request the view currently shows.
func (a App) Request() model.StatsRequest {
	return a.req
}

func computeCmd(engine Computer, req model.StatsRequest) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		res := engine.Compute(context.Background(), req)
		return ResultMsg{Request: req, Result: res, Took: time.Since(start)}
	}
}

func refreshTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func next[T comparable](values []T, cur T) T {
	for i, v := range values {
		if v == cur {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func prev[T comparable](values []T, cur T) T {
	for i, v := range values {
		if v == cur {
			return values[(i+len(values)-1)%len(values)]
		}
	}
	return values[0]
}
