package session

import (
	"github.com/seenimoa/onepager/internal/navigator"
	"github.com/seenimoa/onepager/internal/search"
	"github.com/seenimoa/onepager/pkg/models"
)

// Events receives a session's outbound notifications. Implementations must
// be safe for concurrent use: search results arrive from lookup
// goroutines.
type Events interface {
	OnSearch(query string)
	OnSearchResults(state search.State)
	OnCompanySelect(company models.Company)
	OnSectionChange(section navigator.Section)
	OnAddToFavorites(symbol string)
	OnLogin()
	OnLogout()
	OnShowFavorites()
	OnBack()
}

// NopEvents discards every notification.
type NopEvents struct{}

func (NopEvents) OnSearch(string)                   {}
func (NopEvents) OnSearchResults(search.State)      {}
func (NopEvents) OnCompanySelect(models.Company)    {}
func (NopEvents) OnSectionChange(navigator.Section) {}
func (NopEvents) OnAddToFavorites(string)           {}
func (NopEvents) OnLogin()                          {}
func (NopEvents) OnLogout()                         {}
func (NopEvents) OnShowFavorites()                  {}
func (NopEvents) OnBack()                           {}

var _ Events = NopEvents{}
