package main

import "testing"

func TestSearchTreatsEveryWordAsQuery(t *testing.T) {
	var path string
	search := newSearchCmd(&path)
	for _, word := range []string{"history", "popular"} {
		got, args, err := search.Find([]string{word})
		if err != nil {
			t.Fatal(err)
		}
		if got != search || len(args) != 1 || args[0] != word {
			t.Errorf("search %q resolved to %q with args %v", word, got.Name(), args)
		}
	}
}
