package manager

import "github.com/fetchy-pm/fetchy/pkg/store"

// List returns every installed package record.
func (m *Manager) List() ([]store.InstalledPackage, error) {
	return m.Store.List()
}
