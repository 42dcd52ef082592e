package service

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"missionhub_backend/internals/features/missions/model"
	"missionhub_backend/internals/helpers/storage"
)

// fakeStorage is an in-memory ObjectStorage.
type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	buckets   map[string]storage.BucketSpec
	deleted   []string
	deleteErr map[string]error
	uploadErr map[string]error
	bucketErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:   make(map[string][]byte),
		buckets:   make(map[string]storage.BucketSpec),
		deleteErr: make(map[string]error),
		uploadErr: make(map[string]error),
	}
}

func objKey(bucket, path string) string { return bucket + "/" + path }

func (f *fakeStorage) EnsureBucket(ctx context.Context, spec storage.BucketSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bucketErr != nil {
		return f.bucketErr
	}
	f.buckets[spec.Name] = spec
	return nil
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string, upsert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := objKey(bucket, path)
	if err, ok := f.uploadErr[key]; ok {
		return err
	}
	if _, exists := f.objects[key]; exists && !upsert {
		return fmt.Errorf("upload %s: %w", key, storage.ErrObjectExists)
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, bucket, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := objKey(bucket, path)
	if err, ok := f.deleteErr[key]; ok {
		return err
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) PublicURL(bucket, path string) string {
	return "https://cdn.test/" + bucket + "/" + path
}

func (f *fakeStorage) has(bucket, path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[objKey(bucket, path)]
	return ok
}

func (f *fakeStorage) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deleted))
	copy(out, f.deleted)
	return out
}

// fakeStore is an in-memory MissionStore. rejectColumns simulates a
// deployment whose missions table lacks those columns.
type fakeStore struct {
	mu            sync.Mutex
	uids          map[string]bool
	orders        []int
	records       map[string]*model.MissionModel
	inserts       []map[string]interface{}
	updates       []map[string]interface{}
	rejectColumns map[string]error
	insertErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		uids:          make(map[string]bool),
		records:       make(map[string]*model.MissionModel),
		rejectColumns: make(map[string]error),
	}
}

func (f *fakeStore) UIDExists(ctx context.Context, uid string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uids[uid], nil
}

func (f *fakeStore) UsedOrderNumbers(ctx context.Context) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func (f *fakeStore) Insert(ctx context.Context, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, fields)
	if f.insertErr != nil {
		return f.insertErr
	}
	for col, err := range f.rejectColumns {
		if _, ok := fields[col]; ok {
			return err
		}
	}
	if uid, ok := fields["mission_uid"].(string); ok {
		f.uids[uid] = true
	}
	if order, ok := fields["order_no"].(int); ok {
		f.orders = append(f.orders, order)
	}
	return nil
}

func (f *fakeStore) UpdateByUID(ctx context.Context, uid string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, fields)
	for col, err := range f.rejectColumns {
		if _, ok := fields[col]; ok {
			return err
		}
	}
	return nil
}

func (f *fakeStore) GetByUID(ctx context.Context, uid string) (*model.MissionModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.records[uid]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}
