package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eyesofazrael/azrael/pkg/localstore"
)

func newPrefsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change local display preferences",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show all preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(context.Background(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			theme, err := a.Preferences.Theme()
			if err != nil {
				return err
			}
			dark, err := a.Preferences.DarkMode()
			if err != nil {
				return err
			}
			topics, err := a.Preferences.TheoryTopics()
			if err != nil {
				return err
			}
			fmt.Printf("theme:   %s\ndark:    %t\ntopics:  %s\n", theme, dark, strings.Join(topics, ", "))
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <theme|dark|topic|untopic> <value>",
		Short: "Change a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(context.Background(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()
			return setPreference(a.Preferences, args[0], args[1])
		},
	}

	cmd.AddCommand(getCmd, setCmd)
	return cmd
}

func setPreference(p *localstore.Preferences, key, value string) error {
	switch key {
	case "theme":
		return p.SetTheme(value)
	case "dark":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("dark: %w", err)
		}
		return p.SetDarkMode(on)
	case "topic":
		return p.AddTheoryTopic(value)
	case "untopic":
		return p.RemoveTheoryTopic(value)
	default:
		return fmt.Errorf("unknown preference %q", key)
	}
}
