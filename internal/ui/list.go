package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/earlybird-mp3/onthespot-scdl/internal/models"
)

var _ list.Item = resultItem{}

// resultItem wraps [models.SearchResult] to implement [list.Item].
type resultItem struct {
	result models.SearchResult
}

func (i resultItem) FilterValue() string { return i.result.ItemName }
func (i resultItem) Title() string       { return i.result.ItemName }
func (i resultItem) Description() string {
	desc := i.result.ItemBy
	if desc == "" {
		desc = i.result.ItemType
	} else {
		desc = fmt.Sprintf("%s • %s", desc, i.result.ItemType)
	}
	return desc
}
