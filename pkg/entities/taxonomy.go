// Package entities holds the encyclopedia taxonomy and the entity
// collections built on it.
package entities

import (
	"sort"

	"github.com/eyesofazrael/azrael/pkg/models"
)

// Entity types and the collection each is stored in.
var typeCollections = map[string]string{
	"deity":    "deities",
	"hero":     "heroes",
	"creature": "creatures",
	"place":    "places",
	"item":     "items",
	"text":     "texts",
}

var mythologies = []models.Mythology{
	{ID: "greek", Name: "Greek", Region: "Mediterranean", Era: "Archaic to Hellenistic"},
	{ID: "roman", Name: "Roman", Region: "Mediterranean", Era: "Republic to Empire"},
	{ID: "norse", Name: "Norse", Region: "Scandinavia", Era: "Viking Age"},
	{ID: "egyptian", Name: "Egyptian", Region: "Nile Valley", Era: "Predynastic to Ptolemaic"},
	{ID: "celtic", Name: "Celtic", Region: "Ireland, Britain and Gaul", Era: "Iron Age to Early Medieval"},
	{ID: "hindu", Name: "Hindu", Region: "Indian subcontinent", Era: "Vedic to Puranic"},
	{ID: "buddhist", Name: "Buddhist", Region: "South and East Asia", Era: "5th century BCE onward"},
	{ID: "chinese", Name: "Chinese", Region: "East Asia", Era: "Shang onward"},
	{ID: "japanese", Name: "Japanese", Region: "Japan", Era: "Kofun onward"},
	{ID: "sumerian", Name: "Sumerian", Region: "Mesopotamia", Era: "Early Dynastic"},
	{ID: "babylonian", Name: "Babylonian", Region: "Mesopotamia", Era: "Old to Neo-Babylonian"},
	{ID: "persian", Name: "Persian", Region: "Iranian plateau", Era: "Achaemenid to Sasanian"},
	{ID: "aztec", Name: "Aztec", Region: "Mesoamerica", Era: "Postclassic"},
	{ID: "mayan", Name: "Mayan", Region: "Mesoamerica", Era: "Preclassic to Postclassic"},
	{ID: "yoruba", Name: "Yoruba", Region: "West Africa", Era: "Traditional"},
	{ID: "slavic", Name: "Slavic", Region: "Eastern Europe", Era: "Pre-Christian"},
}

var mythologyIndex = func() map[string]models.Mythology {
	m := make(map[string]models.Mythology, len(mythologies))
	for _, my := range mythologies {
		m[my.ID] = my
	}
	return m
}()

// Mythologies returns every known tradition, sorted by id.
func Mythologies() []models.Mythology {
	out := make([]models.Mythology, len(mythologies))
	copy(out, mythologies)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LookupMythology returns the tradition with the given id.
func LookupMythology(id string) (models.Mythology, bool) {
	m, ok := mythologyIndex[id]
	return m, ok
}

// Types returns every entity type, sorted.
func Types() []string {
	out := make([]string, 0, len(typeCollections))
	for t := range typeCollections {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// CollectionFor returns the collection name for an entity type.
func CollectionFor(entityType string) (string, bool) {
	c, ok := typeCollections[entityType]
	return c, ok
}
