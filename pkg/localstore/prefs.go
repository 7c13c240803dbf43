package localstore

import (
	"fmt"
	"slices"
	"strings"
)

// ShaderThemes lists the background themes a user may pick.
var ShaderThemes = []string{"none", "night", "cosmic", "fire", "water", "earth", "aurora"}

// DefaultShaderTheme is used until the user picks one.
const DefaultShaderTheme = "night"

// Preferences reads and writes display preferences.
type Preferences struct {
	store *Store
}

// NewPreferences wraps store.
func NewPreferences(store *Store) *Preferences {
	return &Preferences{store: store}
}

// Theme returns the preferred shader theme.
func (p *Preferences) Theme() (string, error) {
	var theme string
	ok, err := p.store.GetJSON(KeyPreferredShaderTheme, &theme)
	if err != nil {
		return "", err
	}
	if !ok || theme == "" {
		return DefaultShaderTheme, nil
	}
	return theme, nil
}

// SetTheme stores the preferred shader theme.
func (p *Preferences) SetTheme(theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if !slices.Contains(ShaderThemes, theme) {
		return fmt.Errorf("unknown shader theme %q (known: %s)", theme, strings.Join(ShaderThemes, ", "))
	}
	return p.store.SetJSON(KeyPreferredShaderTheme, theme)
}

// DarkMode reports whether dark mode is on. It defaults to true.
func (p *Preferences) DarkMode() (bool, error) {
	dark := true
	if _, err := p.store.GetJSON(KeyDarkMode, &dark); err != nil {
		return false, err
	}
	return dark, nil
}

func (p *Preferences) SetDarkMode(on bool) error {
	return p.store.SetJSON(KeyDarkMode, on)
}

// TheoryTopics returns the user's custom theory topics in insertion order.
func (p *Preferences) TheoryTopics() ([]string, error) {
	var topics []string
	if _, err := p.store.GetJSON(KeyCustomTheoryTopics, &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// AddTheoryTopic appends a topic unless an equal one (ignoring case) exists.
func (p *Preferences) AddTheoryTopic(topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return fmt.Errorf("topic is empty")
	}
	topics, err := p.TheoryTopics()
	if err != nil {
		return err
	}
	for _, t := range topics {
		if strings.EqualFold(t, topic) {
			return nil
		}
	}
	return p.store.SetJSON(KeyCustomTheoryTopics, append(topics, topic))
}

// RemoveTheoryTopic removes a topic, ignoring case.
func (p *Preferences) RemoveTheoryTopic(topic string) error {
	topics, err := p.TheoryTopics()
	if err != nil {
		return err
	}
	kept := topics[:0]
	for _, t := range topics {
		if !strings.EqualFold(t, strings.TrimSpace(topic)) {
			kept = append(kept, t)
		}
	}
	return p.store.SetJSON(KeyCustomTheoryTopics, kept)
}
