package main

import (
	"testing"

	"github.com/eyesofazrael/azrael/pkg/localstore"
)

func TestSetPreference(t *testing.T) {
	st, err := localstore.Open("", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	p := localstore.NewPreferences(st)

	if err := setPreference(p, "theme", "cosmic"); err != nil {
		t.Fatal(err)
	}
	if theme, _ := p.Theme(); theme != "cosmic" {
		t.Errorf("expected cosmic, got %q", theme)
	}

	if err := setPreference(p, "dark", "false"); err != nil {
		t.Fatal(err)
	}
	if dark, _ := p.DarkMode(); dark {
		t.Error("expected dark mode off")
	}

	if err := setPreference(p, "topic", "Flood myths"); err != nil {
		t.Fatal(err)
	}
	if topics, _ := p.TheoryTopics(); len(topics) != 1 {
		t.Errorf("expected one topic, got %v", topics)
	}

	if err := setPreference(p, "dark", "maybe"); err == nil {
		t.Error("expected error for invalid bool")
	}
	if err := setPreference(p, "font", "serif"); err == nil {
		t.Error("expected error for unknown preference")
	}
}
