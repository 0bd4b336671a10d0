package photodb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FakeRepository is an in-memory Repository for service tests.
type FakeRepository struct {
	mu     sync.Mutex
	users  map[uuid.UUID]bool
	photos map[uuid.UUID]Photo
	likes  map[uuid.UUID]map[uuid.UUID]time.Time

	InsertPhotoFunc func(ctx context.Context, db bun.IDB, photo *Photo) error
	ListPhotosFunc  func(ctx context.Context, db bun.IDB, filter ListFilter) ([]PhotoView, error)
}

// NewFakeRepository returns an empty FakeRepository.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		users:  map[uuid.UUID]bool{},
		photos: map[uuid.UUID]Photo{},
		likes:  map[uuid.UUID]map[uuid.UUID]time.Time{},
	}
}

// AddUsers registers ids that satisfy the users foreign key.
func (f *FakeRepository) AddUsers(ids ...uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.users[id] = true
	}
}

// Seed stores a photo without validation.
func (f *FakeRepository) Seed(photo Photo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos[photo.ID] = photo
}

func (f *FakeRepository) InsertPhoto(ctx context.Context, db bun.IDB, photo *Photo) error {
	if f.InsertPhotoFunc != nil {
		return f.InsertPhotoFunc(ctx, db, photo)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.users[photo.UserID] {
		return ErrUnknownUser
	}
	f.photos[photo.ID] = *photo
	return nil
}

func (f *FakeRepository) view(p Photo, viewer uuid.UUID) PhotoView {
	likes := f.likes[p.ID]
	_, mine := likes[viewer]
	return PhotoView{Photo: p, LikeCount: len(likes), LikedByMe: mine}
}

func (f *FakeRepository) GetPhoto(_ context.Context, _ bun.IDB, id, viewer uuid.UUID) (*PhotoView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[id]
	if !ok {
		return nil, ErrNotFound
	}
	v := f.view(p, viewer)
	return &v, nil
}

func (f *FakeRepository) ListPhotos(ctx context.Context, db bun.IDB, filter ListFilter) ([]PhotoView, error) {
	if f.ListPhotosFunc != nil {
		return f.ListPhotosFunc(ctx, db, filter)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []PhotoView
	for _, p := range f.photos {
		if p.Hidden && !filter.IncludeHidden {
			continue
		}
		if filter.Before != nil && !p.CreatedAt.Before(*filter.Before) {
			continue
		}
		out = append(out, f.view(p, filter.Viewer))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *FakeRepository) DeletePhoto(_ context.Context, _ bun.IDB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.photos[id]; !ok {
		return ErrNotFound
	}
	delete(f.photos, id)
	delete(f.likes, id)
	return nil
}

func (f *FakeRepository) SetHidden(_ context.Context, _ bun.IDB, id uuid.UUID, hidden bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[id]
	if !ok {
		return ErrNotFound
	}
	p.Hidden = hidden
	f.photos[id] = p
	return nil
}

func (f *FakeRepository) AddLike(_ context.Context, _ bun.IDB, photoID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.photos[photoID]; !ok {
		return ErrNotFound
	}
	if !f.users[userID] {
		return ErrUnknownUser
	}
	if f.likes[photoID] == nil {
		f.likes[photoID] = map[uuid.UUID]time.Time{}
	}
	if _, ok := f.likes[photoID][userID]; !ok {
		f.likes[photoID][userID] = time.Now().UTC()
	}
	return nil
}

func (f *FakeRepository) RemoveLike(_ context.Context, _ bun.IDB, photoID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.likes[photoID], userID)
	return nil
}

func (f *FakeRepository) CountPhotos(_ context.Context, _ bun.IDB) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var visible, hidden int
	for _, p := range f.photos {
		if p.Hidden {
			hidden++
		} else {
			visible++
		}
	}
	return visible, hidden, nil
}
