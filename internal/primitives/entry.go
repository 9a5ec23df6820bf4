package primitives

import (
	"fmt"
	"time"
)

// Origin tags what started a navigation.
type Origin int

const (
	Programmatic Origin = iota
	UserClick
	HistoryPop
)

func (o Origin) String() string {
	switch o {
	case Programmatic:
		return "programmatic"
	case UserClick:
		return "click"
	case HistoryPop:
		return "popstate"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Entry is one navigation in the ledger. Empty Namespace and PageTitle stand
// for "unknown".
type Entry struct {
	ID             string    `json:"id" yaml:"id"`
	URL            string    `json:"url" yaml:"url"`
	Namespace      string    `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	PageTitle      string    `json:"pageTitle,omitempty" yaml:"pageTitle,omitempty"`
	ScrollPosition float64   `json:"scrollPosition" yaml:"scrollPosition"`
	Origin         Origin    `json:"origin" yaml:"origin"`
	RecordedAt     time.Time `json:"recordedAt" yaml:"recordedAt"`
}

// Pending is the single queued navigation.
type Pending struct {
	URL    string
	Origin Origin
}

// HistoryState is the payload stored with each browser history entry.
type HistoryState struct {
	URL               string `json:"url" yaml:"url"`
	Title             string `json:"title,omitempty" yaml:"title,omitempty"`
	PageID            string `json:"pageId,omitempty" yaml:"pageId,omitempty"`
	CurrentMenuItemID string `json:"currentMenuItemId,omitempty" yaml:"currentMenuItemId,omitempty"`
}
