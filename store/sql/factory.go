package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	indexOptions []ContentIndexOption

	contentIndex *ContentIndex
	pendingStore *PendingDispatchStore
}

func NewRepositoryFactory(opts ...ContentIndexOption) *RepositoryFactory {
	return &RepositoryFactory{indexOptions: opts}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...ContentIndexOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...ContentIndexOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// BuildStores accepts a *bun.DB or anything exposing DB() *bun.DB, such as
// a go-persistence-bun client.
func (f *RepositoryFactory) BuildStores(persistenceClient any) (*RepositoryFactory, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.contentIndex != nil && f.pendingStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) ContentIndex() *ContentIndex {
	if f == nil {
		return nil
	}
	return f.contentIndex
}

func (f *RepositoryFactory) PendingStore() *PendingDispatchStore {
	if f == nil {
		return nil
	}
	return f.pendingStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	contentIndex, err := NewContentIndex(f.db, f.indexOptions...)
	if err != nil {
		return err
	}
	f.contentIndex = contentIndex
	pendingStore, err := NewPendingDispatchStore(f.db)
	if err != nil {
		return err
	}
	f.pendingStore = pendingStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
