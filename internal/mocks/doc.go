// Package mocks provides centralized testify mocks for the persistence
// interfaces, so service and cache tests can script store failures without
// defining inline mocks in every test file.
//
// Usage:
//
//	items := &mocks.ItemStore{}
//	items.On("FetchByID", mock.Anything, id).Return(domain.ItemRecord{}, store.ErrItemNotFound)
package mocks
