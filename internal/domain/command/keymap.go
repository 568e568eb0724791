package command

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// ErrUnsupportedFormat is returned for keymap files that are neither YAML nor TOML
var ErrUnsupportedFormat = errors.New("unsupported keymap format")

// Keymap binds chords to commands. It is safe for concurrent use.
type Keymap struct {
	mu       sync.RWMutex
	bindings map[string]Command
}

// NewKeymap creates an empty keymap
func NewKeymap() *Keymap {
	return &Keymap{bindings: make(map[string]Command)}
}

// DefaultKeymap returns the built-in bindings
func DefaultKeymap() *Keymap {
	k := NewKeymap()
	defaults := map[string]Command{
		"Ctrl+Shift+T":   {Action: ActionNewTerminal},
		"Ctrl+Shift+W":   {Action: ActionCloseTerminal},
		"Ctrl+Tab":       {Action: ActionNextTerminal},
		"Ctrl+Shift+Tab": {Action: ActionPrevTerminal},
		"Ctrl+Shift+G":   {Action: ActionToggleView},
	}
	for chord, cmd := range defaults {
		k.mustBind(chord, cmd)
	}
	for i := 1; i <= MaxIndex; i++ {
		k.mustBind(fmt.Sprintf("Ctrl+%d", i), Command{Action: ActionActivateIndex, Index: i})
	}
	return k
}

func (k *Keymap) mustBind(chord string, cmd Command) {
	if err := k.Bind(chord, cmd); err != nil {
		panic(err)
	}
}

// Bind binds chord to cmd, replacing any previous binding
func (k *Keymap) Bind(chord string, cmd Command) error {
	c, err := ParseChord(chord)
	if err != nil {
		return err
	}
	if err := cmd.Validate(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.bindings[c.String()] = cmd
	return nil
}

// Unbind removes the binding for chord
func (k *Keymap) Unbind(chord string) error {
	c, err := ParseChord(chord)
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.bindings, c.String())
	return nil
}

// Lookup returns the command bound to c
func (k *Keymap) Lookup(c Chord) (Command, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	cmd, ok := k.bindings[c.String()]
	return cmd, ok
}

// Len returns the number of bindings
func (k *Keymap) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.bindings)
}

// Binding is one chord and its command
type Binding struct {
	Chord   string  `json:"chord"`
	Command Command `json:"command"`
}

// Bindings lists bindings sorted by chord
func (k *Keymap) Bindings() []Binding {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := make([]Binding, 0, len(k.bindings))
	for chord, cmd := range k.bindings {
		out = append(out, Binding{Chord: chord, Command: cmd})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chord < out[j].Chord })
	return out
}

// keymapFile is the on-disk shape. An empty command unbinds the chord.
type keymapFile struct {
	Bindings map[string]string `yaml:"bindings" toml:"bindings"`
}

// LoadKeymap reads a YAML or TOML keymap file and overlays it on the
// default bindings. The format is chosen by extension.
func LoadKeymap(path string) (*Keymap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keymap: %w", err)
	}
	return ParseKeymap(data, filepath.Ext(path))
}

// ParseKeymap parses keymap data in format ("yaml", "yml" or "toml", with
// or without a leading dot) over the default bindings.
func ParseKeymap(data []byte, format string) (*Keymap, error) {
	var file keymapFile

	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse yaml keymap: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse toml keymap: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	k := DefaultKeymap()
	chords := make([]string, 0, len(file.Bindings))
	for chord := range file.Bindings {
		chords = append(chords, chord)
	}
	sort.Strings(chords)

	for _, chord := range chords {
		raw := strings.TrimSpace(file.Bindings[chord])
		if raw == "" {
			if err := k.Unbind(chord); err != nil {
				return nil, err
			}
			continue
		}
		cmd, err := ParseCommand(raw)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", chord, err)
		}
		if err := k.Bind(chord, cmd); err != nil {
			return nil, fmt.Errorf("binding %q: %w", chord, err)
		}
	}
	return k, nil
}
