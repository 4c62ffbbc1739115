// Package history implements named reversible commands with a linear
// undo/redo timeline and keyboard-shortcut dispatch.
//
// A Command's Execute decides intent and captures whatever snapshot it needs,
// returning an Action. Invoke applies the Action immediately and, unless the
// command skips history, records it at the cursor, discarding any redo branch.
//
// A Manager is not safe for concurrent use. Commands must not call Invoke
// from their Execute, Redo or Undo functions.
package history

import "visualeditor/internal/errs"

// Action is the reversible result of executing a command.
// Undo may be nil, in which case undoing the entry moves the cursor only.
type Action struct {
	Redo func()
	Undo func()
}

// Command is a named operation.
type Command struct {
	Name string
	// Keyboard lists chords such as "ctrl+z" or "delete".
	Keyboard []string
	// SkipHistory keeps the command off the timeline (select-all, undo, redo).
	SkipHistory bool
	// Check, when set, validates the arguments before Execute runs.
	Check   func(args ...any) error
	Execute func(args ...any) Action
	// Init runs once from Manager.Init; the returned teardown runs on Destroy.
	Init func() func()
}

// EventKind names a timeline movement.
type EventKind string

const (
	EventApplied EventKind = "applied"
	EventUndone  EventKind = "undone"
	EventRedone  EventKind = "redone"
)

// Event is reported to the observer after the cursor moves.
type Event struct {
	Kind EventKind
	Name string
}

// State is a read-only view of the timeline.
type State struct {
	Cursor int      `json:"cursor"`
	Names  []string `json:"names"`
}

type entry struct {
	name   string
	action Action
}

// Manager owns the registered commands and the timeline.
type Manager struct {
	commands []*Command // registration order, used for keyboard scanning
	byName   map[string]*Command

	cursor   int
	timeline []entry

	initialized bool
	teardowns   []func()
	inFlight    bool
	observer    func(Event)
}

// New creates a Manager with the built-in undo and redo commands.
func New() *Manager {
	m := &Manager{byName: make(map[string]*Command), cursor: -1}
	m.Register(Command{
		Name:        "undo",
		Keyboard:    []string{"ctrl+z"},
		SkipHistory: true,
		Execute: func(...any) Action {
			return Action{Redo: m.undo}
		},
	})
	m.Register(Command{
		Name:        "redo",
		Keyboard:    []string{"ctrl+y", "ctrl+shift+z"},
		SkipHistory: true,
		Execute: func(...any) Action {
			return Action{Redo: m.redo}
		},
	})
	return m
}

// SetObserver installs fn to be called after every cursor movement.
func (m *Manager) SetObserver(fn func(Event)) {
	m.observer = fn
}

// Register stores cmd, replacing any command with the same name.
// When Init has already run, the new command's Init hook runs immediately.
func (m *Manager) Register(cmd Command) {
	c := &cmd
	if _, exists := m.byName[c.Name]; exists {
		for i, old := range m.commands {
			if old.Name == c.Name {
				m.commands = append(m.commands[:i], m.commands[i+1:]...)
				break
			}
		}
	}
	m.commands = append(m.commands, c)
	m.byName[c.Name] = c

	if m.initialized && c.Init != nil {
		if td := c.Init(); td != nil {
			m.teardowns = append(m.teardowns, td)
		}
	}
}

// Has reports whether a command named name is registered.
func (m *Manager) Has(name string) bool {
	_, ok := m.byName[name]
	return ok
}

// Names returns the registered command names in keyboard scan order.
func (m *Manager) Names() []string {
	names := make([]string, len(m.commands))
	for i, c := range m.commands {
		names[i] = c.Name
	}
	return names
}

// Invoke executes the named command and applies it.
func (m *Manager) Invoke(name string, args ...any) error {
	cmd, ok := m.byName[name]
	if !ok {
		return errs.New(errs.ErrCodeUnknownCommand, "command %q is not registered", name)
	}
	if m.inFlight {
		return errs.New(errs.ErrCodeReentrantInvoke, "command %q invoked while another command is running", name)
	}
	if cmd.Check != nil {
		if err := cmd.Check(args...); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "command %q", name)
		}
	}

	action := m.run(cmd, args)

	if cmd.SkipHistory {
		return nil
	}

	m.timeline = append(m.timeline[:m.cursor+1], entry{name: name, action: action})
	m.cursor++
	m.notify(EventApplied, name)
	return nil
}

// run executes cmd and applies its action. inFlight is cleared even when the
// command panics.
func (m *Manager) run(cmd *Command, args []any) Action {
	m.inFlight = true
	defer func() { m.inFlight = false }()
	action := cmd.Execute(args...)
	if action.Redo != nil {
		action.Redo()
	}
	return action
}

// Undo reverts the entry at the cursor. It is a no-op on an empty timeline.
func (m *Manager) Undo() {
	m.undo()
}

// Redo re-applies the entry after the cursor, if any.
func (m *Manager) Redo() {
	m.redo()
}

func (m *Manager) undo() {
	if m.cursor == -1 {
		return
	}
	e := m.timeline[m.cursor]
	if e.action.Undo != nil {
		e.action.Undo()
	}
	m.cursor--
	m.notify(EventUndone, e.name)
}

func (m *Manager) redo() {
	next := m.cursor + 1
	if next >= len(m.timeline) {
		return
	}
	e := m.timeline[next]
	if e.action.Redo != nil {
		e.action.Redo()
	}
	m.cursor = next
	m.notify(EventRedone, e.name)
}

// CanUndo reports whether Undo would move the cursor.
func (m *Manager) CanUndo() bool { return m.cursor >= 0 }

// CanRedo reports whether Redo would move the cursor.
func (m *Manager) CanRedo() bool { return m.cursor+1 < len(m.timeline) }

// State returns the cursor and the names of the timeline entries.
func (m *Manager) State() State {
	names := make([]string, len(m.timeline))
	for i, e := range m.timeline {
		names[i] = e.name
	}
	return State{Cursor: m.cursor, Names: names}
}

// Init runs every command's Init hook and enables keyboard dispatch.
// It reports false when the manager was already initialized.
func (m *Manager) Init() bool {
	if m.initialized {
		return false
	}
	m.initialized = true
	for _, c := range m.commands {
		if c.Init == nil {
			continue
		}
		if td := c.Init(); td != nil {
			m.teardowns = append(m.teardowns, td)
		}
	}
	return true
}

// Destroy runs the collected teardowns once and disables dispatch.
func (m *Manager) Destroy() {
	for _, td := range m.teardowns {
		td()
	}
	m.teardowns = nil
	m.initialized = false
}

func (m *Manager) notify(kind EventKind, name string) {
	if m.observer != nil {
		m.observer(Event{Kind: kind, Name: name})
	}
}
